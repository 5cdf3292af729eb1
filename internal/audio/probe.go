// Package audio holds the optional, best-effort audio analysis hook used while
// indexing. It only measures duration; tempo is never derived from audio.
package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/wav"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidFile       = errors.New("invalid audio file")
)

// Prober measures sample durations. The zero value is not usable; use NewProber.
type Prober struct {
	timeout time.Duration

	ffprobeOnce sync.Once
	ffprobePath string
	lookPath    func(string) (string, error)
}

func NewProber() *Prober {
	return &Prober{
		timeout:  5 * time.Second,
		lookPath: exec.LookPath,
	}
}

// FFprobeAvailable reports whether an ffprobe executable is on PATH.
// The lookup runs once per Prober.
func (p *Prober) FFprobeAvailable() bool {
	p.ffprobeOnce.Do(func() {
		if path, err := p.lookPath("ffprobe"); err == nil {
			p.ffprobePath = path
		}
	})
	return p.ffprobePath != ""
}

// Supports reports whether the extension (with or without a dot) can be probed.
func (p *Prober) Supports(ext string) bool {
	switch normalizeExt(ext) {
	case ".wav", ".mp3", ".flac", ".ogg":
		return true
	case ".aiff", ".aif", ".m4a":
		return p.FFprobeAvailable()
	}
	return false
}

// Duration returns the length of the audio file in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	switch normalizeExt(filepath.Ext(path)) {
	case ".wav":
		return wavDuration(path)
	case ".mp3":
		return beepDuration(path, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(rc)
		})
	case ".flac":
		return beepDuration(path, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(rc)
		})
	case ".ogg":
		return beepDuration(path, func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(rc)
		})
	case ".aiff", ".aif", ".m4a":
		if !p.FFprobeAvailable() {
			return 0, fmt.Errorf("%w: %s needs ffprobe", ErrUnsupportedFormat, filepath.Ext(path))
		}
		return p.ffprobeDuration(ctx, path)
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFile, filepath.Base(path))
	}
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	frameSize := int64(d.NumChans) * int64(d.BitDepth) / 8
	if frameSize == 0 || d.SampleRate == 0 {
		return 0, fmt.Errorf("%w: bad wav format", ErrInvalidFile)
	}
	frames := d.PCMLen() / frameSize
	return float64(frames) / float64(d.SampleRate), nil
}

type beepDecoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func beepDuration(path string, decode beepDecoder) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	s, format, err := decode(f)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	n := s.Len()
	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("%w: no sample rate", ErrInvalidFile)
	}
	return format.SampleRate.D(n).Seconds(), nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

func (p *Prober) ffprobeDuration(ctx context.Context, path string) (float64, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseFFprobe(out)
}

func parseFFprobe(out []byte) (float64, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	hasAudio := false
	for _, s := range probe.Streams {
		if s.CodecType == "audio" {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		return 0, fmt.Errorf("%w: no audio stream found", ErrInvalidFile)
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad duration %q", ErrInvalidFile, probe.Format.Duration)
	}
	return duration, nil
}
