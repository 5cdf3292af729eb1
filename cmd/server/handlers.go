package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/himanishpuri/SampleSensei/internal/metadata"
	"github.com/himanishpuri/SampleSensei/internal/search"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/sensei"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service sensei.Service
	config  *ServerConfig
	metrics *Metrics
	log     *logger.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	IndexPath      string
	Store          string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service sensei.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		metrics: NewMetrics(),
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// queryInt reads an integer query parameter, returning def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func queryFloat(r *http.Request, name string, def float64) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	return v, true, nil
}

// nonNil keeps empty listings encoded as [] rather than null
func nonNil(samples []sensei.Sample) []sensei.Sample {
	if samples == nil {
		return []sensei.Sample{}
	}
	return samples
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "SampleSensei API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":       "GET /health",
			"metrics":      "GET /api/health/metrics",
			"prometheus":   "GET /metrics",
			"samples":      "GET /api/samples",
			"clearSamples": "DELETE /api/samples",
			"categories":   "GET /api/samples/categories",
			"random":       "GET /api/samples/random?count=",
			"byCategory":   "GET /api/samples/category/{category}?limit=",
			"byBPM":        "GET /api/samples/bpm/{bpm}?tolerance=&limit=",
			"search":       "GET /api/search?q=&category=&bpm_min=&bpm_max=&key=&limit=",
			"scan":         "POST /api/scan",
			"generate":     "POST /api/generate",
			"genres":       "GET /api/genres",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:      "healthy",
		IndexPath:   s.config.IndexPath,
		Store:       s.config.Store,
		SampleCount: s.service.Count(),
		Generator:   s.service.GeneratorName(),
		SampleRate:  s.config.SampleRate,
	})
}

// handleListSamples handles GET /api/samples
func (s *Server) handleListSamples(w http.ResponseWriter, r *http.Request) {
	samples := nonNil(s.service.Samples())
	s.respondJSON(w, http.StatusOK, SamplesResponse{Samples: samples, Count: len(samples)})
}

// handleClearSamples handles DELETE /api/samples
func (s *Server) handleClearSamples(w http.ResponseWriter, r *http.Request) {
	n := s.service.Count()
	if err := s.service.Clear(); err != nil {
		s.log.Errorf("Failed to clear index: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to clear index")
		return
	}

	s.log.Infof("Cleared %d samples from the index", n)
	s.respondJSON(w, http.StatusOK, ClearResponse{Message: "Index cleared", Removed: n})
}

// handleCategories handles GET /api/samples/categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, CategoriesResponse{
		Categories: s.service.Categories(),
		Total:      s.service.Count(),
	})
}

// handleRandom handles GET /api/samples/random
func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count", DefaultRandomCount)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if count > MaxRandomCount {
		count = MaxRandomCount
	}

	samples := nonNil(s.service.RandomSamples(count))
	s.respondJSON(w, http.StatusOK, SamplesResponse{Samples: samples, Count: len(samples)})
}

// handleByCategory handles GET /api/samples/category/{category}
func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(mux.Vars(r)["category"])
	limit, err := queryInt(r, "limit", search.DefaultCategoryLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples := nonNil(s.service.SearchByCategory(category, limit))
	s.respondJSON(w, http.StatusOK, SamplesResponse{Samples: samples, Count: len(samples)})
}

// handleByBPM handles GET /api/samples/bpm/{bpm}
func (s *Server) handleByBPM(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.ParseFloat(mux.Vars(r)["bpm"], 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "bpm must be a number")
		return
	}
	tolerance, _, err := queryFloat(r, "tolerance", search.DefaultBPMTolerance)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples := nonNil(s.service.SearchByBPM(target, tolerance, limit))
	s.respondJSON(w, http.StatusOK, SamplesResponse{Samples: samples, Count: len(samples)})
}

// handleSearch handles GET /api/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	opts := sensei.SearchOptions{
		Category: strings.ToLower(r.URL.Query().Get("category")),
		Key:      r.URL.Query().Get("key"),
	}
	if opts.Category != "" && !metadata.IsCategory(opts.Category) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", opts.Category))
		return
	}

	var err error
	if opts.Limit, err = queryInt(r, "limit", 0); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bpmMin, hasMin, err := queryFloat(r, "bpm_min", metadata.MinBPM)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bpmMax, hasMax, err := queryFloat(r, "bpm_max", metadata.MaxBPM)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if hasMin || hasMax {
		if bpmMin > bpmMax {
			s.respondError(w, http.StatusBadRequest, "bpm_min must not exceed bpm_max")
			return
		}
		opts.BPMRange = &sensei.BPMRange{Min: bpmMin, Max: bpmMax}
	}

	s.metrics.SearchRequestsTotal.Inc()
	results := s.service.Search(q, opts)
	if results == nil {
		results = []sensei.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results, Count: len(results)})
}

// handleScan handles POST /api/scan
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Scanning folder: %s (recursive: %v)", req.Folder, req.recursive())
	added, err := s.service.ScanFolder(ctx, req.Folder, req.recursive())
	s.metrics.SamplesIndexedTotal.Add(float64(len(added)))
	if err != nil {
		s.log.Errorf("Failed to scan %s: %v", req.Folder, err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to scan folder: %v", err))
		return
	}

	added = nonNil(added)
	s.log.Infof("Scan complete: %d new samples", len(added))
	s.respondJSON(w, http.StatusOK, ScanResponse{Added: added, Count: len(added), Total: s.service.Count()})
}

// handleGenerate handles POST /api/generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Generating beat for prompt: %q", req.Prompt)
	res := s.service.Generate(ctx, req.Prompt, req.Duration)
	s.metrics.GenerationsTotal.WithLabelValues(res.Generator, generationStatus(res)).Inc()

	switch {
	case res.Success:
		s.log.Infof("Generated %s with %s", res.FilePath, res.Generator)
		s.respondJSON(w, http.StatusOK, res)
	case res.Unavailable:
		s.log.Warnf("Generator %s unavailable: %s", res.Generator, res.Error)
		s.respondJSON(w, http.StatusServiceUnavailable, res)
	default:
		s.log.Errorf("Generation failed: %s", res.Error)
		s.respondJSON(w, http.StatusInternalServerError, res)
	}
}

// handleGenres handles GET /api/genres
func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]string{
		"genres": s.service.Genres(),
		"moods":  s.service.Moods(),
	})
}
