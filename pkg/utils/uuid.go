package utils

import (
	"crypto/rand"
	"io"
	"strings"

	"github.com/google/uuid"
)

// RandomSuffix returns a short random token used to disambiguate generated file names.
// A nil source falls back to crypto/rand; tests pass a seeded math/rand source.
func RandomSuffix(src io.Reader) string {
	if src == nil {
		src = rand.Reader
	}
	id, err := uuid.NewRandomFromReader(src)
	if err != nil {
		id = uuid.New()
	}
	return strings.SplitN(id.String(), "-", 2)[0]
}
