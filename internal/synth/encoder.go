package synth

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

var (
	// ErrEncoderUnavailable means the format is known but no encoder is built in.
	ErrEncoderUnavailable = errors.New("audio encoder unavailable")
	ErrUnknownFormat      = errors.New("unknown audio format")
)

// Encoder serializes mono float samples in [-1, 1].
type Encoder interface {
	Format() string
	Encode(w io.WriteSeeker, samples []float64, sampleRate int) error
}

// WAVEncoder writes uncompressed PCM.
type WAVEncoder struct {
	BitDepth int
}

func (WAVEncoder) Format() string { return "wav" }

func (e WAVEncoder) Encode(w io.WriteSeeker, samples []float64, sampleRate int) error {
	depth := e.BitDepth
	if depth == 0 {
		depth = 24
	}
	if depth != 16 && depth != 24 && depth != 32 {
		return fmt.Errorf("unsupported wav bit depth %d", depth)
	}

	maxVal := float64(int64(1)<<(depth-1) - 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * maxVal))
	}

	enc := wav.NewEncoder(w, sampleRate, depth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: depth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

var encoders = map[string]Encoder{
	"wav": WAVEncoder{BitDepth: 24},
}

// Formats that are valid output choices but have no lossless encoder here.
var unavailableFormats = map[string]bool{
	"flac": true,
	"aiff": true,
}

// EncoderFor returns the encoder registered for format (e.g. "wav" or ".wav").
func EncoderFor(format string) (Encoder, error) {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if enc, ok := encoders[f]; ok {
		return enc, nil
	}
	if unavailableFormats[f] {
		return nil, fmt.Errorf("%w: no %s encoder available", ErrEncoderUnavailable, f)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFile encodes samples to path, replacing it atomically.
func WriteFile(path string, enc Encoder, samples []float64, sampleRate int) error {
	return utils.WriteFileAtomic(path, func(f *os.File) error {
		return enc.Encode(f, samples, sampleRate)
	})
}
