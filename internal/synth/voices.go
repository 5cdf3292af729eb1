package synth

import (
	"fmt"
	"math"
	"math/rand"
)

// Voice lengths in seconds.
const (
	kickLength  = 0.1
	snareLength = 0.1
	clapLength  = 0.05
	hatLength   = 0.02
)

var clapOffsets = []float64{0, 0.005, 0.010}

// VoiceSynth renders single drum hits. Noise voices draw from rng, so a
// fixed seed yields identical waveforms.
type VoiceSynth struct {
	sampleRate int
	rng        *rand.Rand
}

func NewVoiceSynth(sampleRate int, rng *rand.Rand) *VoiceSynth {
	return &VoiceSynth{sampleRate: sampleRate, rng: rng}
}

func (s *VoiceSynth) Render(v Voice) ([]float64, error) {
	switch v {
	case Kick:
		return s.Kick(), nil
	case Snare:
		return s.Snare(), nil
	case Clap:
		return s.Clap(), nil
	case Hat:
		return s.Hat(), nil
	}
	return nil, fmt.Errorf("unknown voice %q", v)
}

func (s *VoiceSynth) length(seconds float64) int {
	return int(float64(s.sampleRate) * seconds)
}

func (s *VoiceSynth) at(i int) float64 {
	return float64(i) / float64(s.sampleRate)
}

// Kick is a pitch-swept sine: f(t) = 80·e^(−15t), envelope e^(−20t).
func (s *VoiceSynth) Kick() []float64 {
	out := make([]float64, s.length(kickLength))
	for i := range out {
		t := s.at(i)
		freq := 80 * math.Exp(-15*t)
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*t) * math.Exp(-20*t)
	}
	return out
}

// Snare mixes white noise (σ=0.5) with a decaying 200 Hz tone, envelope e^(−25t).
func (s *VoiceSynth) Snare() []float64 {
	out := make([]float64, s.length(snareLength))
	for i := range out {
		t := s.at(i)
		noise := s.rng.NormFloat64() * 0.5
		tone := 0.3 * math.Sin(2*math.Pi*200*t*math.Exp(-10*t))
		out[i] = (noise + tone) * math.Exp(-25*t)
	}
	return out
}

// Clap sums three noise bursts (σ=0.3) starting 0, 5 and 10 ms in, envelope e^(−40t).
func (s *VoiceSynth) Clap() []float64 {
	out := make([]float64, s.length(clapLength))
	for _, off := range clapOffsets {
		start := int(off * float64(s.sampleRate))
		for i := start; i < len(out); i++ {
			out[i] += s.rng.NormFloat64() * 0.3
		}
	}
	for i := range out {
		out[i] *= math.Exp(-40 * s.at(i))
	}
	return out
}

// Hat is white noise (σ=0.2) with envelope e^(−100t).
func (s *VoiceSynth) Hat() []float64 {
	out := make([]float64, s.length(hatLength))
	for i := range out {
		out[i] = s.rng.NormFloat64() * 0.2 * math.Exp(-100*s.at(i))
	}
	return out
}
