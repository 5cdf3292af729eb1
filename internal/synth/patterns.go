// Package synth renders drum loops procedurally from fixed genre patterns.
package synth

import (
	"strings"
)

type Voice string

const (
	Kick  Voice = "kick"
	Snare Voice = "snare"
	Clap  Voice = "clap"
	Hat   Voice = "hat"
)

// Steps is the pattern length: one 4/4 bar of 16th notes.
const Steps = 16

const (
	DefaultGenre = "trap"
	DefaultMood  = "neutral"
)

type Pattern [Steps]uint8

// DrumPattern maps each voice a genre uses to its step flags. A missing voice is silent.
// A pattern defines at most one of Snare and Clap.
type DrumPattern struct {
	Genre  string
	Voices map[Voice]Pattern
}

func (p DrumPattern) Has(v Voice) bool {
	_, ok := p.Voices[v]
	return ok
}

// Hits returns the step indices where voice v fires.
func (p DrumPattern) Hits(v Voice) []int {
	pat, ok := p.Voices[v]
	if !ok {
		return nil
	}
	var out []int
	for i, on := range pat {
		if on != 0 {
			out = append(out, i)
		}
	}
	return out
}

var genreOrder = []string{"trap", "hiphop", "house", "lo-fi"}

var patterns = map[string]DrumPattern{
	"trap": {Genre: "trap", Voices: map[Voice]Pattern{
		Kick:  {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		Snare: {0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		Hat:   {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}},
	"hiphop": {Genre: "hiphop", Voices: map[Voice]Pattern{
		Kick:  {1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0},
		Snare: {0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		Hat:   {1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
	}},
	"house": {Genre: "house", Voices: map[Voice]Pattern{
		Kick: {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		Clap: {0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		Hat:  {0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1},
	}},
	"lo-fi": {Genre: "lo-fi", Voices: map[Voice]Pattern{
		Kick:  {1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		Snare: {0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		Hat:   {0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
	}},
}

// Genres recognised in prompts, in priority order. Some have no pattern of their own.
var detectGenres = []string{"trap", "hiphop", "house", "techno", "lo-fi", "drill", "dubstep"}

type moodGenre struct {
	mood  string
	genre string
}

var moodGenres = []moodGenre{
	{"dark", "trap"},
	{"hard", "trap"},
	{"aggressive", "trap"},
	{"chill", "lo-fi"},
	{"soft", "lo-fi"},
	{"peaceful", "lo-fi"},
	{"groovy", "house"},
	{"funky", "hiphop"},
	{"classic", "hiphop"},
	{"boom bap", "hiphop"},
}

var moodWords = []string{"dark", "hard", "aggressive", "chill", "soft", "peaceful", "groovy", "funky"}

// Lookup returns the pattern defined for genre.
func Lookup(genre string) (DrumPattern, bool) {
	p, ok := patterns[strings.ToLower(genre)]
	return p, ok
}

// Resolve returns the pattern for genre, or the default genre's pattern.
func Resolve(genre string) DrumPattern {
	if p, ok := Lookup(genre); ok {
		return p
	}
	return patterns[DefaultGenre]
}

// DetectGenre finds a genre name in prompt, then a mood that implies one.
func DetectGenre(prompt string) string {
	prompt = strings.ToLower(prompt)
	for _, g := range detectGenres {
		if strings.Contains(prompt, g) {
			return g
		}
	}
	for _, mg := range moodGenres {
		if strings.Contains(prompt, mg.mood) {
			return mg.genre
		}
	}
	return DefaultGenre
}

func DetectMood(prompt string) string {
	prompt = strings.ToLower(prompt)
	for _, m := range moodWords {
		if strings.Contains(prompt, m) {
			return m
		}
	}
	return DefaultMood
}

// Genres lists the genres that have their own pattern.
func Genres() []string {
	out := make([]string, len(genreOrder))
	copy(out, genreOrder)
	return out
}

// Moods lists the mood keywords that select a genre.
func Moods() []string {
	out := make([]string, 0, len(moodGenres))
	for _, mg := range moodGenres {
		out = append(out, mg.mood)
	}
	return out
}
