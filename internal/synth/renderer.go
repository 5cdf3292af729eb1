package synth

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultSampleRate = 44100
	DefaultTempo      = 120.0
	StepsPerBeat      = 4

	// Peak is the absolute amplitude of the loudest sample after normalization.
	Peak = 0.8
)

var ErrInvalidDuration = errors.New("duration must be positive")

// voiceOrder is the mix order; Snare and Clap are never both present.
var voiceOrder = []Voice{Kick, Snare, Clap, Hat}

// Trigger is one voice hit placed on the output buffer.
type Trigger struct {
	Voice  Voice
	Step   int
	Offset int
}

// Renderer is safe for concurrent use.
type Renderer struct {
	sampleRate int
	tempo      float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRenderer returns a renderer. Non-positive sampleRate or tempo select the
// defaults; a nil rng seeds one from the clock.
func NewRenderer(sampleRate int, tempo float64, rng *rand.Rand) *Renderer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Renderer{sampleRate: sampleRate, tempo: tempo, rng: rng}
}

func (r *Renderer) SampleRate() int { return r.sampleRate }

func (r *Renderer) samplesPerStep() float64 {
	samplesPerBeat := float64(r.sampleRate) * 60 / r.tempo
	return samplesPerBeat / StepsPerBeat
}

// Triggers lays the pattern cyclically over a buffer of total samples.
func (r *Renderer) Triggers(p DrumPattern, total int) []Trigger {
	per := r.samplesPerStep()
	var out []Trigger
	for _, v := range voiceOrder {
		pat, ok := p.Voices[v]
		if !ok {
			continue
		}
		for k := 0; ; k++ {
			offset := int(math.Floor(float64(k) * per))
			if offset >= total {
				break
			}
			if pat[k%Steps] != 0 {
				out = append(out, Trigger{Voice: v, Step: k, Offset: offset})
			}
		}
	}
	return out
}

// Render builds seconds of mono audio for genre. Unknown genres use the default pattern.
func (r *Renderer) Render(genre string, seconds float64) ([]float64, error) {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, ErrInvalidDuration
	}

	pattern := Resolve(genre)
	track := make([]float64, int(float64(r.sampleRate)*seconds))

	sounds, err := r.voices(pattern)
	if err != nil {
		return nil, err
	}

	for _, tr := range r.Triggers(pattern, len(track)) {
		overlay(track, sounds[tr.Voice], tr.Offset)
	}
	Normalize(track, Peak)
	return track, nil
}

func (r *Renderer) voices(p DrumPattern) (map[Voice][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vs := NewVoiceSynth(r.sampleRate, r.rng)
	sounds := make(map[Voice][]float64, len(p.Voices))
	for _, v := range voiceOrder {
		if !p.Has(v) {
			continue
		}
		sound, err := vs.Render(v)
		if err != nil {
			return nil, err
		}
		sounds[v] = sound
	}
	return sounds, nil
}

// overlay adds sound into track at offset, truncating at the end of track.
func overlay(track, sound []float64, offset int) {
	end := offset + len(sound)
	if end > len(track) {
		end = len(track)
	}
	for i := offset; i < end; i++ {
		track[i] += sound[i-offset]
	}
}

// Normalize scales buf in place so its peak absolute value is peak.
// A silent buffer is left untouched.
func Normalize(buf []float64, peak float64) {
	top := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > top {
			top = a
		}
	}
	if top == 0 {
		return
	}
	scale := peak / top
	for i := range buf {
		buf[i] *= scale
	}
}
