// Package storage persists the sample index across process restarts.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/himanishpuri/SampleSensei/pkg/models"
)

var ErrStoreClosed = errors.New("store is closed")

const (
	KindJSON   = "json"
	KindSQLite = "sqlite"
)

// Store is a durable path-keyed collection of sample metadata.
// SaveSamples only appends: entries whose path is already stored are ignored.
type Store interface {
	LoadAll() ([]models.SampleMetadata, error)
	SaveSamples(samples []models.SampleMetadata) error
	Clear() error
	Close() error
}

// Open returns the store of the given kind backed by path.
func Open(kind, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindJSON:
		return NewJSONStore(path), nil
	case KindSQLite, "sqlite3":
		return NewDBClientWithPath(path)
	}
	return nil, fmt.Errorf("unknown index store %q (want %s or %s)", kind, KindJSON, KindSQLite)
}
