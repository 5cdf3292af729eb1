package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/himanishpuri/SampleSensei/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	// Root endpoint
	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	// Health endpoints
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/health/metrics", s.handleMetrics).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	// Sample library endpoints
	router.HandleFunc("/api/samples", s.handleListSamples).Methods(http.MethodGet)
	router.HandleFunc("/api/samples", s.handleClearSamples).Methods(http.MethodDelete)
	router.HandleFunc("/api/samples/categories", s.handleCategories).Methods(http.MethodGet)
	router.HandleFunc("/api/samples/random", s.handleRandom).Methods(http.MethodGet)
	router.HandleFunc("/api/samples/category/{category}", s.handleByCategory).Methods(http.MethodGet)
	router.HandleFunc("/api/samples/bpm/{bpm}", s.handleByBPM).Methods(http.MethodGet)
	router.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/api/scan", s.handleScan).Methods(http.MethodPost)

	// Generation endpoints
	router.HandleFunc("/api/generate", s.handleGenerate).Methods(http.MethodPost)
	router.HandleFunc("/api/genres", s.handleGenres).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests never reach route matching
	return corsMiddleware(s.config.AllowedOrigins)(router)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Add("Vary", "Origin")
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		log := logger.GetLogger()
		log.Debugf("%s %s from %s", r.Method, r.URL.Path, getClientIP(r))

		next.ServeHTTP(wrapped, r)

		log.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Round(time.Millisecond))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("🚀 SampleSensei server starting on %s", addr)
	s.log.Infof("   Index: %s (%s)", s.config.IndexPath, s.config.Store)
	s.log.Infof("   Generator: %s", s.service.GeneratorName())
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("\nEndpoints:")
	s.log.Infof("   GET    /health                           - Health check")
	s.log.Infof("   GET    /api/health/metrics               - Index metrics")
	s.log.Infof("   GET    /metrics                          - Prometheus metrics")
	s.log.Infof("   GET    /api/samples                      - List all samples")
	s.log.Infof("   DELETE /api/samples                      - Clear the index")
	s.log.Infof("   GET    /api/samples/categories           - Samples per category")
	s.log.Infof("   GET    /api/samples/random               - Random samples")
	s.log.Infof("   GET    /api/samples/category/{category}  - Samples of one category")
	s.log.Infof("   GET    /api/samples/bpm/{bpm}            - Samples near a tempo")
	s.log.Infof("   GET    /api/search                       - Ranked search")
	s.log.Infof("   POST   /api/scan                         - Index a folder")
	s.log.Infof("   POST   /api/generate                     - Render a drum loop")

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
