package main

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/SampleSensei/pkg/sensei"
)

// Request limits
const (
	// MaxGenerateDuration caps a single render (seconds)
	MaxGenerateDuration = 600

	// MaxRandomCount caps GET /api/samples/random
	MaxRandomCount = 100

	DefaultRandomCount = 5
)

// ScanRequest is the request body for POST /api/scan
type ScanRequest struct {
	Folder string `json:"folder"`

	// Recursive defaults to true when omitted
	Recursive *bool `json:"recursive,omitempty"`
}

// Validate checks if the request is valid
func (r *ScanRequest) Validate() error {
	if strings.TrimSpace(r.Folder) == "" {
		return fmt.Errorf("folder is required")
	}
	return nil
}

func (r *ScanRequest) recursive() bool {
	return r.Recursive == nil || *r.Recursive
}

// ScanResponse is the response for POST /api/scan
type ScanResponse struct {
	Added []sensei.Sample `json:"added"`
	Count int             `json:"count"`
	Total int             `json:"total"`
}

// GenerateRequest is the request body for POST /api/generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`

	// Duration in seconds; zero selects the default
	Duration float64 `json:"duration,omitempty"`
}

// Validate checks if the request is valid
func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.Duration < 0 || r.Duration > MaxGenerateDuration {
		return fmt.Errorf("duration must be between 0 and %d seconds", MaxGenerateDuration)
	}
	return nil
}

// SamplesResponse is the response for sample listings
type SamplesResponse struct {
	Samples []sensei.Sample `json:"samples"`
	Count   int             `json:"count"`
}

// SearchResponse is the response for GET /api/search
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []sensei.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// CategoriesResponse is the response for GET /api/samples/categories
type CategoriesResponse struct {
	Categories map[string]int `json:"categories"`
	Total      int            `json:"total"`
}

// ClearResponse is the response for DELETE /api/samples
type ClearResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// MetricsResponse provides server health and index metrics
type MetricsResponse struct {
	Status      string `json:"status"`
	IndexPath   string `json:"index_path"`
	Store       string `json:"store"`
	SampleCount int    `json:"sample_count"`
	Generator   string `json:"generator"`
	SampleRate  int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
