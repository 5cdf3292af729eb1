// Package metadata infers sample attributes (tags, tempo, key, category) from
// file names and folder paths. Every function here is pure.
package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/himanishpuri/SampleSensei/pkg/models"
)

const (
	MinBPM = 40.0
	MaxBPM = 300.0
)

// Descriptors is the fixed tag vocabulary matched against file names.
var Descriptors = []string{
	"dark", "bright", "warm", "cold", "dusty", "clean", "dirty", "vintage",
	"modern", "lofi", "hifi", "punchy", "soft", "hard", "heavy", "light",
	"deep", "high", "low", "mid", "atmospheric", "ambient", "energetic",
	"chill", "aggressive", "smooth", "rough", "crispy", "muddy", "wet", "dry",
	"soul", "jazz", "funk", "rock", "trap", "boom", "bap", "drill", "house",
	"techno", "edm", "pop", "rnb", "hip", "hop", "classical", "orchestral",
}

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is ordered; the first matching category wins.
var categoryRules = []categoryRule{
	{models.CategoryDrums, []string{"drum", "kick", "snare", "hihat", "hi-hat", "hat", "clap", "perc", "tom", "cymbal", "break"}},
	{models.CategoryBass, []string{"bass", "808", "sub", "low"}},
	{models.CategoryMelody, []string{"melody", "lead", "synth", "keys", "piano", "guitar", "strings", "pluck"}},
	{models.CategoryVocal, []string{"vocal", "vox", "voice", "acapella", "chant", "choir"}},
	{models.CategoryFX, []string{"fx", "effect", "riser", "sweep", "impact", "transition", "foley"}},
	{models.CategoryLoop, []string{"loop", "beat", "groove"}},
	{models.CategoryOneShot, []string{"oneshot", "one-shot", "hit", "stab"}},
	{models.CategorySample, []string{"sample", "chop", "flip"}},
}

// Tried in order; the first match with a plausible tempo wins.
var bpmPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{2,3})\s*bpm`),
	regexp.MustCompile(`bpm\s*(\d{2,3})`),
	regexp.MustCompile(`-(\d{2,3})-`),
}

// The note must stand alone: not glued to a preceding or following letter,
// so words such as "Dark" or "Bass" do not read as keys.
var keyPattern = regexp.MustCompile(`(?:^|[^A-Za-z])([A-G][#b]?)(?:\s*((?i:minor|major|min|maj)|m|M))?(?:[^A-Za-z]|$)`)

// Stem strips the directory and extension from a file name.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtractTags returns every descriptor found as a substring of the lower-cased stem,
// in vocabulary order and without duplicates.
func ExtractTags(filename string) []string {
	stem := strings.ToLower(Stem(filename))
	tags := make([]string, 0, 4)
	for _, d := range Descriptors {
		if strings.Contains(stem, d) {
			tags = append(tags, d)
		}
	}
	return tags
}

// ExtractBPM reads a tempo hint such as "90bpm", "bpm 120" or "-128-" from the stem.
// Values outside [MinBPM, MaxBPM] are ignored and the next pattern is tried.
func ExtractBPM(filename string) *float64 {
	stem := strings.ToLower(Stem(filename))
	for _, re := range bpmPatterns {
		m := re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		bpm, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if bpm >= MinBPM && bpm <= MaxBPM {
			return &bpm
		}
	}
	return nil
}

// ExtractKey reads a musical key such as "Cm", "F# minor" or "Dmaj" from the stem.
// Minor qualities normalize to "<note> minor", major ones to "<note> major";
// a bare note is returned as-is.
func ExtractKey(filename string) *string {
	m := keyPattern.FindStringSubmatch(Stem(filename))
	if m == nil {
		return nil
	}

	key := m[1]
	switch strings.ToLower(m[2]) {
	case "":
	case "m":
		if m[2] == "M" {
			key += " major"
		} else {
			key += " minor"
		}
	case "minor", "min":
		key += " minor"
	case "major", "maj":
		key += " major"
	}
	return &key
}

// InferCategory classifies a sample from its file name and containing folder.
// Falls back to models.CategorySample.
func InferCategory(filename, folder string) string {
	combined := strings.ToLower(Stem(filename) + " " + folder)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(combined, kw) {
				return rule.category
			}
		}
	}
	return models.CategorySample
}

// IsCategory reports whether c belongs to the closed category vocabulary.
func IsCategory(c string) bool {
	for _, known := range models.CategoryOrder {
		if c == known {
			return true
		}
	}
	return false
}
