// Package index maintains the path-keyed registry of sample metadata and
// builds it incrementally by walking sample folders.
package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/SampleSensei/internal/metadata"
	"github.com/himanishpuri/SampleSensei/internal/storage"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/models"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

// SupportedExtensions lists the audio file types picked up by a scan.
var SupportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".aiff": true,
	".aif":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

func IsSupported(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// DurationProber fills SampleMetadata.Duration when audio analysis is enabled.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ScanProgress is reported once per candidate file as extraction completes.
type ScanProgress struct {
	Folder string
	Done   int
	Total  int
}

type Option func(*SampleIndex)

func WithLogger(l Logger) Option {
	return func(x *SampleIndex) {
		if l != nil {
			x.log = l
		}
	}
}

// WithProber enables duration probing during scans.
func WithProber(p DurationProber) Option {
	return func(x *SampleIndex) { x.prober = p }
}

func WithWorkers(n int) Option {
	return func(x *SampleIndex) {
		if n > 0 {
			x.workers = n
		}
	}
}

// WithProgress registers a callback; it may be called from several goroutines
// but never concurrently.
func WithProgress(fn func(ScanProgress)) Option {
	return func(x *SampleIndex) { x.progress = fn }
}

func WithClock(now func() time.Time) Option {
	return func(x *SampleIndex) {
		if now != nil {
			x.now = now
		}
	}
}

// SampleIndex is safe for concurrent use. Entries are inserted whole and never
// updated once present.
type SampleIndex struct {
	mu      sync.RWMutex
	samples map[string]models.SampleMetadata
	order   []string

	store    storage.Store
	prober   DurationProber
	log      Logger
	workers  int
	progress func(ScanProgress)
	now      func() time.Time
}

// New builds an index and loads any state held by store. A nil store keeps
// the index in memory only.
func New(store storage.Store, opts ...Option) (*SampleIndex, error) {
	x := &SampleIndex{
		samples: make(map[string]models.SampleMetadata),
		store:   store,
		log:     logger.GetLogger(),
		workers: runtime.NumCPU(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(x)
	}

	if store != nil {
		existing, err := store.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("loading index: %w", err)
		}
		for _, m := range existing {
			x.insertLocked(m)
		}
		x.log.Debugf("loaded %d samples from index", len(x.order))
	}
	return x, nil
}

func (x *SampleIndex) insertLocked(m models.SampleMetadata) bool {
	if _, ok := x.samples[m.FilePath]; ok {
		return false
	}
	x.samples[m.FilePath] = m
	x.order = append(x.order, m.FilePath)
	return true
}

// ScanFolder indexes every supported file under root that is not yet known and
// returns only the newly added entries. A missing folder yields no entries and
// no error; unreadable files are skipped.
func (x *SampleIndex) ScanFolder(ctx context.Context, root string, recursive bool) ([]models.SampleMetadata, error) {
	root = filepath.Clean(utils.ExpandHome(root))
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if !utils.DirExists(root) {
		x.log.Warnf("folder not found: %s", root)
		return []models.SampleMetadata{}, nil
	}

	candidates, err := x.walk(ctx, root, recursive)
	if err != nil {
		return nil, err
	}
	x.log.Debugf("scan %s: %d new candidate files", root, len(candidates))

	extracted := make([]*models.SampleMetadata, len(candidates))
	var (
		progMu sync.Mutex
		done   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)
	for i, path := range candidates {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			extracted[i] = x.extract(gctx, root, path)
			if x.progress != nil {
				progMu.Lock()
				done++
				x.progress(ScanProgress{Folder: root, Done: done, Total: len(candidates)})
				progMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	added := make([]models.SampleMetadata, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, m := range extracted {
		if m == nil || seen[m.FilePath] {
			continue
		}
		if _, known := x.samples[m.FilePath]; known {
			continue
		}
		seen[m.FilePath] = true
		added = append(added, *m)
	}

	// Entries become known only once persisted.
	if x.store != nil {
		if err := x.store.SaveSamples(added); err != nil {
			return nil, fmt.Errorf("persisting index: %w", err)
		}
	}
	for _, m := range added {
		x.insertLocked(m)
	}
	x.log.Infof("indexed %d new samples from %s", len(added), root)
	return added, nil
}

// walk collects supported, not-yet-indexed paths in lexical walk order.
func (x *SampleIndex) walk(ctx context.Context, root string, recursive bool) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			x.log.Debugf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !IsSupported(path) {
			return nil
		}
		if _, known := x.samples[path]; known {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, err
	}
	return out, nil
}

func (x *SampleIndex) extract(ctx context.Context, root, path string) *models.SampleMetadata {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		x.log.Debugf("skipping unreadable file %s: %v", path, err)
		return nil
	}

	// The scanned folder's own name counts toward the category; its ancestors do not.
	dir := filepath.Dir(path)
	rel, err := filepath.Rel(filepath.Dir(root), dir)
	if err != nil || rel == "." {
		rel = dir
	}
	name := filepath.Base(path)

	m := &models.SampleMetadata{
		FilePath:  path,
		FileName:  name,
		Folder:    dir,
		Extension: strings.ToLower(filepath.Ext(name)),
		SizeBytes: info.Size(),
		BPM:       metadata.ExtractBPM(name),
		Key:       metadata.ExtractKey(name),
		Tags:      metadata.ExtractTags(name),
		Category:  metadata.InferCategory(name, filepath.ToSlash(rel)),
		IndexedAt: x.now().UTC(),
	}

	if x.prober != nil {
		if d, err := x.prober.Duration(ctx, path); err == nil {
			m.Duration = &d
		} else {
			x.log.Debugf("no duration for %s: %v", name, err)
		}
	}
	return m
}

// All returns every entry in insertion order.
func (x *SampleIndex) All() []models.SampleMetadata {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]models.SampleMetadata, 0, len(x.order))
	for _, p := range x.order {
		out = append(out, x.samples[p])
	}
	return out
}

func (x *SampleIndex) Get(path string) (models.SampleMetadata, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	m, ok := x.samples[path]
	return m, ok
}

func (x *SampleIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order)
}

// Clear drops every entry and the persisted state.
func (x *SampleIndex) Clear() error {
	x.mu.Lock()
	x.samples = make(map[string]models.SampleMetadata)
	x.order = nil
	x.mu.Unlock()

	if x.store != nil {
		if err := x.store.Clear(); err != nil {
			return fmt.Errorf("clearing index store: %w", err)
		}
	}
	return nil
}

func (x *SampleIndex) Close() error {
	if x.store == nil {
		return nil
	}
	return x.store.Close()
}
