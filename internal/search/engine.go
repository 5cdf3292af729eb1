// Package search ranks indexed samples against free-text and structured queries.
package search

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/himanishpuri/SampleSensei/pkg/models"
)

const (
	DefaultLimit         = 10
	DefaultCategoryLimit = 20
	DefaultBPMTolerance  = 5.0

	UnknownCategory = "unknown"
)

// Score weights.
const (
	fullMatchScore    = 1.0
	partialMatchScore = 0.5
	categoryBonus     = 2.0
	bpmBonus          = 1.5
	bpmPenalty        = 0.5
	keyBonus          = 1.5
)

// Source supplies the samples to rank, in insertion order.
type Source interface {
	All() []models.SampleMetadata
}

type Engine struct {
	src Source

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine over src. A nil rng seeds one from the clock.
func NewEngine(src Source, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{src: src, rng: rng}
}

// Search scores every sample and returns those with a positive score, best first.
// Equal scores are ordered by file path.
func (e *Engine) Search(query string, opts models.SearchOptions) []models.SearchResult {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := strings.Fields(strings.ToLower(query))

	results := make([]models.SearchResult, 0)
	for _, s := range e.src.All() {
		score, reasons := scoreSample(s, terms, opts)
		if score > 0 {
			results = append(results, models.SearchResult{Sample: s, Score: score, MatchReasons: reasons})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Sample.FilePath < results[j].Sample.FilePath
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func scoreSample(s models.SampleMetadata, terms []string, opts models.SearchOptions) (float64, []string) {
	score := 0.0
	reasons := []string{}

	searchable := strings.ToLower(s.FileName + " " + strings.Join(s.Tags, " ") + " " + s.Category)
	words := strings.Fields(searchable)

	for _, term := range terms {
		if strings.Contains(searchable, term) {
			score += fullMatchScore
			reasons = append(reasons, fmt.Sprintf("matches '%s'", term))
			continue
		}
		for _, w := range words {
			if strings.Contains(w, term) {
				score += partialMatchScore
				reasons = append(reasons, fmt.Sprintf("partial match '%s'", term))
				break
			}
		}
	}

	// Category is a hard filter.
	if opts.Category != "" {
		if s.Category != opts.Category {
			return 0, reasons
		}
		score += categoryBonus
		reasons = append(reasons, "category: "+opts.Category)
	}

	// Out-of-range tempo halves the score accumulated so far.
	if opts.BPMRange != nil && s.BPM != nil {
		if opts.BPMRange.Contains(*s.BPM) {
			score += bpmBonus
			reasons = append(reasons, fmt.Sprintf("BPM %s in range", formatBPM(*s.BPM)))
		} else {
			score *= bpmPenalty
		}
	}

	if opts.Key != "" && s.Key != nil {
		if strings.Contains(strings.ToLower(*s.Key), strings.ToLower(opts.Key)) {
			score += keyBonus
			reasons = append(reasons, "key: "+*s.Key)
		}
	}

	return score, reasons
}

func formatBPM(bpm float64) string {
	return strconv.FormatFloat(bpm, 'f', -1, 64)
}

// ByCategory returns samples whose category equals category, in insertion order.
func (e *Engine) ByCategory(category string, limit int) []models.SampleMetadata {
	if limit <= 0 {
		limit = DefaultCategoryLimit
	}
	out := make([]models.SampleMetadata, 0)
	for _, s := range e.src.All() {
		if s.Category != category {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ByBPM returns samples within tolerance of target, closest first.
// A negative tolerance matches nothing.
func (e *Engine) ByBPM(target, tolerance float64, limit int) []models.SampleMetadata {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]models.SampleMetadata, 0)
	if tolerance < 0 {
		return out
	}
	for _, s := range e.src.All() {
		if s.BPM != nil && math.Abs(*s.BPM-target) <= tolerance {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(*out[i].BPM-target) < math.Abs(*out[j].BPM-target)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Random draws count distinct samples uniformly; count is capped at the library size.
func (e *Engine) Random(count int) []models.SampleMetadata {
	all := e.src.All()
	if count > len(all) {
		count = len(all)
	}
	if count <= 0 {
		return []models.SampleMetadata{}
	}

	e.mu.Lock()
	perm := e.rng.Perm(len(all))
	e.mu.Unlock()

	out := make([]models.SampleMetadata, 0, count)
	for _, i := range perm[:count] {
		out = append(out, all[i])
	}
	return out
}

// Categories counts samples per category. An empty category counts as UnknownCategory.
func (e *Engine) Categories() map[string]int {
	counts := make(map[string]int)
	for _, s := range e.src.All() {
		c := s.Category
		if c == "" {
			c = UnknownCategory
		}
		counts[c]++
	}
	return counts
}
