package sensei

import (
	"github.com/himanishpuri/SampleSensei/internal/storage"
)

// NewSQLiteStorage opens a SQLite-backed index store.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return storage.NewDBClientWithPath(dbPath)
}

// NewJSONStorage returns a store that keeps the index in one JSON document.
func NewJSONStorage(path string) Storage {
	return storage.NewJSONStore(path)
}

// OpenStorage opens the store of the given kind ("json" or "sqlite").
func OpenStorage(kind, path string) (Storage, error) {
	return storage.Open(kind, path)
}
