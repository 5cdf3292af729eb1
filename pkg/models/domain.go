package models

import "time"

// Sample categories. The order of CategoryOrder is the inference priority.
const (
	CategoryDrums   = "drums"
	CategoryBass    = "bass"
	CategoryMelody  = "melody"
	CategoryVocal   = "vocal"
	CategoryFX      = "fx"
	CategoryLoop    = "loop"
	CategoryOneShot = "oneshot"
	CategorySample  = "sample"
)

var CategoryOrder = []string{
	CategoryDrums,
	CategoryBass,
	CategoryMelody,
	CategoryVocal,
	CategoryFX,
	CategoryLoop,
	CategoryOneShot,
	CategorySample,
}

// SampleMetadata describes one indexed audio file. FilePath is the unique key.
// Optional fields are nil when unknown and serialize as explicit nulls.
type SampleMetadata struct {
	FilePath  string    `json:"filepath"`
	FileName  string    `json:"filename"`
	Folder    string    `json:"folder"`
	Extension string    `json:"extension"`
	SizeBytes int64     `json:"size_bytes"`
	Duration  *float64  `json:"duration"`
	BPM       *float64  `json:"bpm"`
	Key       *string   `json:"key"`
	Tags      []string  `json:"tags"`
	Category  string    `json:"category"`
	IndexedAt time.Time `json:"indexed_at"`
}

// SearchResult pairs a sample with its relevance score and the reasons that produced it.
type SearchResult struct {
	Sample       SampleMetadata `json:"sample"`
	Score        float64        `json:"score"`
	MatchReasons []string       `json:"match_reasons"`
}

// BPMRange is an inclusive tempo window.
type BPMRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether bpm lies within the inclusive range.
func (r BPMRange) Contains(bpm float64) bool {
	return bpm >= r.Min && bpm <= r.Max
}

// SearchOptions holds the structured filters of a ranked search.
// Zero values mean "no filter"; Limit <= 0 selects the engine default.
type SearchOptions struct {
	Category string
	BPMRange *BPMRange
	Key      string
	Limit    int
}

// GenerationResult is the outcome of a synthesis request.
// Success implies FilePath is set; failure implies it is empty.
// Unavailable marks a failure caused by a missing capability rather than an internal error.
type GenerationResult struct {
	Success     bool    `json:"success"`
	FilePath    string  `json:"filepath,omitempty"`
	Error       string  `json:"error,omitempty"`
	Unavailable bool    `json:"unavailable,omitempty"`
	Mood        string  `json:"mood,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Duration    float64 `json:"duration"`
	Generator   string  `json:"generator,omitempty"`
}

// Failed builds an unsuccessful GenerationResult.
func Failed(generator, msg string) GenerationResult {
	return GenerationResult{Success: false, Error: msg, Generator: generator}
}

// Unavailable builds a failed result for a missing capability.
func Unavailable(generator, msg string) GenerationResult {
	r := Failed(generator, msg)
	r.Unavailable = true
	return r
}
