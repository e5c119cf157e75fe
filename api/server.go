package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombar/prodscan"
	"github.com/zombar/prodscan/db"
	"github.com/zombar/prodscan/models"
	"github.com/zombar/prodscan/slug"
	"github.com/zombar/prodscan/storage"
)

// Server represents the API server
type Server struct {
	db          *db.DB
	extractor   *prodscan.Extractor
	archive     storage.Archive
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr            string
	DBConfig        db.Config
	ExtractorConfig prodscan.Config
	StorageConfig   storage.Config
	S3Config        *storage.S3Config // when set, archives go to object storage
	CORSEnabled     bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ExtractorConfig: prodscan.DefaultConfig(),
		StorageConfig:   storage.DefaultConfig(),
		CORSEnabled:     true,
	}
}

// NewServer creates a new API server
func NewServer(config Config) (*Server, error) {
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var archive storage.Archive
	if config.S3Config != nil {
		archive, err = storage.NewS3Storage(context.Background(), *config.S3Config)
	} else {
		archive, err = storage.NewFileStore(config.StorageConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
	}

	s := &Server{
		db:          database,
		extractor:   prodscan.New(config.ExtractorConfig),
		archive:     archive,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.middleware(s.mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // allow time for slow pages and annotation calls
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/extract", s.handleExtract)
	s.mux.HandleFunc("/api/extractions", s.handleList)
	s.mux.HandleFunc("/api/extractions/", s.handleExtraction) // /api/extractions/{id} and /{id}/report
	s.mux.HandleFunc("/api/users/", s.handleUser)             // /api/users/{id}/preferences
	s.mux.HandleFunc("/api/summary", s.handleSummary)
}

// DB returns the database handle for metrics collection
func (s *Server) DB() *db.DB {
	return s.db
}

// Start starts the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// statusRecorder captures the response status code for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// middleware applies CORS, logging and request metrics to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Logging (skip health checks to reduce noise)
		start := time.Now()
		if r.URL.Path != "/health" {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(rec, r)

		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			log.Printf("%s %s - %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
			requestsTotal.WithLabelValues(r.Method, routeLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
		}
	})
}

// routeLabel collapses dynamic path segments so metric cardinality stays
// bounded.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/extractions/"):
		if strings.HasSuffix(path, "/report") {
			return "/api/extractions/{id}/report"
		}
		return "/api/extractions/{id}"
	case strings.HasPrefix(path, "/api/users/"):
		return "/api/users/{id}/preferences"
	default:
		return path
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.db.Count()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"count":  count,
		"time":   time.Now(),
	})
}

// ExtractRequest represents an extraction request
type ExtractRequest struct {
	URL         string                  `json:"url"`
	UserID      string                  `json:"user_id,omitempty"`
	Preferences *models.UserPreferences `json:"preferences,omitempty"` // inline preferences win over stored ones
	Force       bool                    `json:"force"`                 // force re-extraction even if cached
}

// handleExtract runs the pipeline for a single URL
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	prefs, err := s.resolvePreferences(&req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load user preferences")
		return
	}

	// Return the cached record unless force is set
	if !req.Force {
		existing, err := s.db.GetByURL(req.URL)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
		if existing != nil {
			existing.Cached = true
			respondJSON(w, http.StatusOK, existing)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := s.extractor.Extract(ctx, req.URL, prefs)
	if err != nil {
		extractionFailures.WithLabelValues(prodscan.Stage(err)).Inc()
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	extractionsTotal.Inc()
	extractionDuration.Observe(time.Since(start).Seconds())

	s.archiveExtraction(result)

	// Save to database
	if err := s.db.SaveExtraction(result); err != nil {
		log.Printf("Failed to save extraction: %v", err)
		// Still return the result even if save fails
	}

	respondJSON(w, http.StatusOK, result)
}

// resolvePreferences picks inline preferences when supplied, otherwise the
// user's stored preferences. A missing user record means no preferences.
func (s *Server) resolvePreferences(req *ExtractRequest) (*models.UserPreferences, error) {
	prefs := req.Preferences
	if prefs == nil && req.UserID != "" {
		user, err := s.db.GetUser(req.UserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			prefs = &user.Preferences
		}
	}
	if prefs != nil {
		prefs.EvaluationCriteria = models.NormalizeCriteria(prefs.EvaluationCriteria)
	}
	return prefs, nil
}

// archiveExtraction stores the readable text and report in the archive.
// Failures become warnings on the record, never errors.
func (s *Server) archiveExtraction(result *models.Extraction) {
	result.Slug = slug.FromProduct(result.Product.Name, result.URL)

	contentKey, err := s.archive.SaveContent(result.Content, result.Slug)
	if err != nil {
		log.Printf("Failed to archive readable content for %s: %v", result.URL, err)
		result.Warnings = append(result.Warnings, "readable content not archived")
	} else {
		result.ContentKey = contentKey
	}

	reportKey, err := s.archive.SaveReport(result.Report, result.Slug)
	if err != nil {
		log.Printf("Failed to archive report for %s: %v", result.URL, err)
		result.Warnings = append(result.Warnings, "report not archived")
	} else {
		result.ReportKey = reportKey
	}
}

// handleExtraction handles GET/DELETE on a single extraction and GET on its
// archived report
func (s *Server) handleExtraction(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/extractions/")
	if path == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if strings.HasSuffix(path, "/report") {
		id := strings.TrimSuffix(path, "/report")
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleServeReport(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetByID(w, r, path)
	case http.MethodDelete:
		s.handleDeleteByID(w, r, path)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleGetByID retrieves an extraction by ID
func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request, id string) {
	data, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if data == nil {
		respondError(w, http.StatusNotFound, "extraction not found")
		return
	}

	// Mark as cached since it's from database
	data.Cached = true
	respondJSON(w, http.StatusOK, data)
}

// handleDeleteByID deletes an extraction by ID
func (s *Server) handleDeleteByID(w http.ResponseWriter, r *http.Request, id string) {
	err := s.db.DeleteByID(id)
	if err != nil {
		if strings.Contains(err.Error(), "no extraction found") {
			respondError(w, http.StatusNotFound, "extraction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete extraction")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "extraction deleted successfully",
	})
}

// handleServeReport serves the archived report, falling back to the
// database copy when the archive has no key
func (s *Server) handleServeReport(w http.ResponseWriter, r *http.Request, id string) {
	data, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if data == nil {
		respondError(w, http.StatusNotFound, "extraction not found")
		return
	}

	report := []byte(data.Report)
	if data.ReportKey != "" {
		archived, err := s.archive.ReadReport(data.ReportKey)
		if err != nil {
			log.Printf("Failed to read archived report %s: %v", data.ReportKey, err)
			// fall through to the database copy
		} else {
			report = archived
		}
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(report)
}

// handleList lists extractions with pagination
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, offset := parseListParams(r)

	data, err := s.db.List(limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	// Mark all as cached since they're from database
	for _, item := range data {
		item.Cached = true
	}

	count, _ := s.db.Count()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":   data,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// parseListParams reads the limit/offset query parameters, enforcing
// defaults and bounds so malformed values never reach the database.
func parseListParams(r *http.Request) (limit, offset int) {
	limit = 20

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		fmt.Sscanf(offsetStr, "%d", &offset)
	}

	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// PreferencesRequest is the body of a preferences update
type PreferencesRequest struct {
	Preferences         models.UserPreferences `json:"preferences"`
	OnboardingCompleted bool                   `json:"onboarding_completed"`
}

// handleUser handles GET/PUT on /api/users/{id}/preferences
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if !strings.HasSuffix(path, "/preferences") {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	id := strings.TrimSuffix(path, "/preferences")
	if id == "" {
		respondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.db.GetUser(id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
		if user == nil {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondJSON(w, http.StatusOK, user)

	case http.MethodPut:
		var req PreferencesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Preferences.EvaluationCriteria = models.NormalizeCriteria(req.Preferences.EvaluationCriteria)

		if err := s.db.UpsertUserPreferences(id, req.Preferences, req.OnboardingCompleted); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save preferences")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "preferences saved successfully",
		})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// SummaryRequest represents a summary generation request
type SummaryRequest struct {
	Criteria []models.CriterionRating `json:"criteria"`
}

// SummaryResponse represents a summary generation response
type SummaryResponse struct {
	Summary  string `json:"summary"`
	Fallback bool   `json:"fallback"` // true when the deterministic local summary was used
}

// handleSummary generates a Markdown assessment from criterion ratings
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Criteria) == 0 {
		respondError(w, http.StatusBadRequest, "criteria array is required and must not be empty")
		return
	}
	for _, c := range req.Criteria {
		if c.Name == "" {
			respondError(w, http.StatusBadRequest, "criterion name is required")
			return
		}
		if c.Rating < 0 || c.Rating > 10 {
			respondError(w, http.StatusBadRequest, "criterion rating must be between 0 and 10")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	summaryText, fallback := s.extractor.GenerateSummary(ctx, req.Criteria)
	if fallback {
		summaryFallbacks.Inc()
	}

	respondJSON(w, http.StatusOK, SummaryResponse{
		Summary:  summaryText,
		Fallback: fallback,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
