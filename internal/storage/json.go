package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/himanishpuri/SampleSensei/pkg/models"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

const DefaultJSONFile = "sample_index.json"

// JSONStore keeps the index as one JSON object keyed by file path.
// Keys are written and read back in insertion order.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	loaded  bool
	closed  bool
	entries []models.SampleMetadata
	seen    map[string]struct{}
}

func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = DefaultJSONFile
	}
	return &JSONStore{path: path, seen: make(map[string]struct{})}
}

func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) LoadAll() ([]models.SampleMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]models.SampleMetadata, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *JSONStore) SaveSamples(samples []models.SampleMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	for _, m := range samples {
		if _, ok := s.seen[m.FilePath]; ok {
			continue
		}
		s.seen[m.FilePath] = struct{}{}
		s.entries = append(s.entries, m)
	}
	return utils.WriteFileAtomic(s.path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := encodeOrdered(w, s.entries); err != nil {
			return err
		}
		return w.Flush()
	})
}

// Clear removes the index file.
func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.entries = nil
	s.seen = make(map[string]struct{})
	s.loaded = true
	return utils.DeleteFile(s.path)
}

func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

func (s *JSONStore) ensureLoaded() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.loaded {
		return nil
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening index %s: %w", s.path, err)
	}
	defer f.Close()

	entries, err := decodeOrdered(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("reading index %s: %w", s.path, err)
	}
	for _, m := range entries {
		if _, ok := s.seen[m.FilePath]; ok {
			continue
		}
		s.seen[m.FilePath] = struct{}{}
		s.entries = append(s.entries, m)
	}
	s.loaded = true
	return nil
}

func encodeOrdered(w io.Writer, entries []models.SampleMetadata) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	for i, m := range entries {
		key, err := json.Marshal(m.FilePath)
		if err != nil {
			return err
		}
		val, err := json.MarshalIndent(m, "  ", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", m.FilePath, err)
		}
		sep := ","
		if i == 0 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "%s\n  %s: %s", sep, key, val); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n}\n")
	return err
}

func decodeOrdered(r io.Reader) ([]models.SampleMetadata, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []models.SampleMetadata
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected path key, got %v", tok)
		}
		var m models.SampleMetadata
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		if m.FilePath == "" {
			m.FilePath = key
		}
		out = append(out, m)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
