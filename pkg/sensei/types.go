package sensei

import (
	"context"

	"github.com/himanishpuri/SampleSensei/internal/index"
	"github.com/himanishpuri/SampleSensei/pkg/models"
)

// Sample is one indexed audio file.
type Sample = models.SampleMetadata

// SearchResult is a ranked search hit with its score and match reasons.
type SearchResult = models.SearchResult

// SearchOptions are the structured filters of a ranked search.
type SearchOptions = models.SearchOptions

type BPMRange = models.BPMRange

// GenerationResult is the outcome of a beat generation request.
type GenerationResult = models.GenerationResult

// ScanProgress reports extraction progress during a folder scan.
type ScanProgress = index.ScanProgress

// RemoteFunc is a client for an external music-generation service. It returns
// the path of the produced audio file.
type RemoteFunc func(ctx context.Context, prompt string, duration float64) (string, error)
