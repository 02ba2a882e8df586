// Package api exposes the HTTP surface: scanning, cleaning, detection,
// comparisons and stored history.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/ghosted/internal/consensus"
	"github.com/zombar/ghosted/internal/database"
	"github.com/zombar/ghosted/internal/experiment"
	"github.com/zombar/ghosted/internal/models"
	"github.com/zombar/ghosted/internal/unicode"
	"github.com/zombar/ghosted/pkg/tracing"
)

// Store persists and retrieves comparison records.
type Store interface {
	CreateComparison(id, text string) error
	SaveResult(id string, result *models.ComparisonResult) error
	GetComparison(id string) (*models.ComparisonRecord, error)
	ListComparisons(limit, offset int) ([]*models.ComparisonRecord, error)
	DeleteComparison(id string) error
}

// Registry exposes configured detectors and runs them.
type Registry interface {
	Detectors() []models.DetectorInfo
	DetectAll(ctx context.Context, text string, requestedIDs []string) []models.DetectorResult
}

// Comparer runs the before/after comparison pipeline.
type Comparer interface {
	Compare(ctx context.Context, text string, detectorIDs []string, normalizeSmartChars bool) models.ComparisonResult
}

// Enqueuer hands comparison jobs to the queue. Nil when the queue is
// not configured.
type Enqueuer interface {
	EnqueueCompare(ctx context.Context, comparisonID, text string, detectors []string, normalizeSmartChars bool) (string, error)
}

// Config carries the handler's request limits and CORS policy.
type Config struct {
	MaxScanChars   int
	MaxDetectChars int
	CORSOrigins    []string
}

// Handler handles HTTP requests
type Handler struct {
	db          Store
	registry    Registry
	engine      Comparer
	queueClient Enqueuer
	experiments *experiment.Store
	cfg         Config
	mux         *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics
func NewHandler(db Store, registry Registry, engine Comparer, queueClient Enqueuer, experiments *experiment.Store, cfg Config) http.Handler {
	h := &Handler{
		db:          db,
		registry:    registry,
		engine:      engine,
		queueClient: queueClient,
		experiments: experiments,
		cfg:         cfg,
		mux:         http.NewServeMux(),
	}

	h.setupRoutes()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(countRequests(h.mux))
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler()) // Prometheus metrics endpoint
	h.mux.HandleFunc("/api/v1/scan", h.handleScan)
	h.mux.HandleFunc("/api/v1/clean", h.handleClean)
	h.mux.HandleFunc("/api/v1/detect", h.handleDetect)
	h.mux.HandleFunc("/api/v1/compare", h.handleCompare)
	h.mux.HandleFunc("/api/v1/compare/async", h.handleCompareAsync)
	h.mux.HandleFunc("/api/v1/jobs/", h.handleJobStatus)
	h.mux.HandleFunc("/api/v1/comparisons", h.handleListComparisons)
	h.mux.HandleFunc("/api/v1/comparisons/", h.handleComparisonOperations)
	h.mux.HandleFunc("/api/v1/detectors", h.handleListDetectors)
	h.mux.HandleFunc("/api/v1/experiment-results", h.handleExperimentResults)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleScan reports invisible characters without modifying the text.
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text              string `json:"text"`
		IncludeSmartChars bool   `json:"include_smart_chars"`
	}
	if !decodeTextRequest(w, r, &req.Text, &req, h.cfg.MaxScanChars) {
		return
	}

	result := unicode.Scan(req.Text, req.IncludeSmartChars)

	scanFindingsTotal.Add(float64(result.TotalInvisibleCount))
	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("text.length", result.CharCount),
		attribute.Int("scan.findings", result.TotalInvisibleCount))

	respondJSON(w, result, http.StatusOK)
}

// handleClean strips invisible characters and reports what was removed.
func (h *Handler) handleClean(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text                string `json:"text"`
		NormalizeSmartChars bool   `json:"normalize_smart_chars"`
	}
	if !decodeTextRequest(w, r, &req.Text, &req, h.cfg.MaxScanChars) {
		return
	}

	result := unicode.Clean(req.Text, req.NormalizeSmartChars)

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("text.length", result.OriginalLength),
		attribute.Int("clean.chars_removed", result.CharsRemoved))

	respondJSON(w, result, http.StatusOK)
}

// handleDetect fans the text out to the configured detectors.
func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text      string   `json:"text"`
		Detectors []string `json:"detectors,omitempty"`
	}
	if !decodeTextRequest(w, r, &req.Text, &req, h.cfg.MaxDetectChars) {
		return
	}

	results := h.registry.DetectAll(r.Context(), req.Text, req.Detectors)
	countDetectorErrors(results)

	respondJSON(w, models.DetectionReport{
		Results: results,
		Summary: consensus.Summarize(results),
	}, http.StatusOK)
}

// handleCompare runs a full comparison synchronously and stores it.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := h.decodeCompareRequest(w, r)
	if !ok {
		return
	}

	comparisonID := generateID()
	if err := h.db.CreateComparison(comparisonID, req.Text); err != nil {
		respondError(w, fmt.Sprintf("Failed to store comparison: %v", err), http.StatusInternalServerError)
		return
	}

	result := h.engine.Compare(r.Context(), req.Text, req.Detectors, req.NormalizeSmartChars)
	countDetectorErrors(result.OriginalDetection.Results)
	countDetectorErrors(result.CleanedDetection.Results)

	if err := h.db.SaveResult(comparisonID, &result); err != nil {
		respondError(w, fmt.Sprintf("Failed to store comparison: %v", err), http.StatusInternalServerError)
		return
	}

	// The response is the comparison payload itself, tagged with the
	// stored record's id. The record wrapper is only for history reads.
	respondJSON(w, struct {
		ID string `json:"id"`
		models.ComparisonResult
	}{ID: comparisonID, ComparisonResult: result}, http.StatusOK)
}

// handleCompareAsync enqueues a comparison job and returns immediately.
func (h *Handler) handleCompareAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.queueClient == nil {
		respondError(w, "Async comparisons require the job queue, which is not configured", http.StatusServiceUnavailable)
		return
	}

	req, ok := h.decodeCompareRequest(w, r)
	if !ok {
		return
	}

	comparisonID := generateID()
	if err := h.db.CreateComparison(comparisonID, req.Text); err != nil {
		respondError(w, fmt.Sprintf("Failed to store comparison: %v", err), http.StatusInternalServerError)
		return
	}

	taskID, err := h.queueClient.EnqueueCompare(r.Context(), comparisonID, req.Text, req.Detectors, req.NormalizeSmartChars)
	if err != nil {
		respondError(w, fmt.Sprintf("Failed to enqueue comparison: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"job_id":  comparisonID,
		"task_id": taskID,
		"status":  database.StatusQueued,
		"message": "Comparison queued for processing",
	}, http.StatusAccepted)
}

// handleJobStatus reports the state of an async comparison.
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if idx := strings.Index(jobID, "/"); idx != -1 {
		jobID = jobID[:idx]
	}
	if jobID == "" {
		respondError(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	record, err := h.db.GetComparison(jobID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSON(w, map[string]interface{}{
				"job_id":  jobID,
				"status":  "not_found",
				"message": "Comparison not found - it may have expired",
			}, http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"job_id":     record.ID,
		"status":     record.Status,
		"created_at": record.CreatedAt,
		"updated_at": record.UpdatedAt,
	}
	if record.Status == database.StatusCompleted {
		response["result"] = record.Result
	}
	if record.Status == database.StatusFailed {
		response["error"] = record.LastError
	}

	respondJSON(w, response, http.StatusOK)
}

// handleListComparisons lists stored comparisons with pagination.
func (h *Handler) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	records, err := h.db.ListComparisons(limit, offset)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.ComparisonRecord{}
	}
	respondJSON(w, records, http.StatusOK)
}

// handleComparisonOperations handles GET and DELETE for one comparison.
func (h *Handler) handleComparisonOperations(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/comparisons/")
	if id == "" {
		respondError(w, "Comparison ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := h.db.GetComparison(id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				respondError(w, err.Error(), http.StatusNotFound)
			} else {
				respondError(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		respondJSON(w, record, http.StatusOK)
	case http.MethodDelete:
		if err := h.db.DeleteComparison(id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				respondError(w, err.Error(), http.StatusNotFound)
			} else {
				respondError(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleListDetectors lists configured detectors with availability.
func (h *Handler) handleListDetectors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, map[string]interface{}{
		"detectors": h.registry.Detectors(),
	}, http.StatusOK)
}

// handleExperimentResults serves the pre-generated dataset verbatim.
func (h *Handler) handleExperimentResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.experiments.Results()
	if err != nil {
		if errors.Is(err, experiment.ErrNoResults) {
			respondError(w, fmt.Sprintf("No experiment results found. Generate the dataset and place it at %s.", h.experiments.Path()), http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type compareRequest struct {
	Text                string   `json:"text"`
	Detectors           []string `json:"detectors,omitempty"`
	NormalizeSmartChars bool     `json:"normalize_smart_chars"`
}

func (h *Handler) decodeCompareRequest(w http.ResponseWriter, r *http.Request) (compareRequest, bool) {
	var req compareRequest
	ok := decodeTextRequest(w, r, &req.Text, &req, h.cfg.MaxDetectChars)
	return req, ok
}

// decodeTextRequest decodes a JSON body into dst and validates its text
// field. maxChars counts characters, not bytes, matching the scanner.
func decodeTextRequest(w http.ResponseWriter, r *http.Request, text *string, dst interface{}, maxChars int) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if *text == "" {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return false
	}
	if maxChars > 0 && utf8.RuneCountInString(*text) > maxChars {
		respondError(w, fmt.Sprintf("Text exceeds the maximum of %d characters", maxChars), http.StatusRequestEntityTooLarge)
		return false
	}
	return true
}

func countDetectorErrors(results []models.DetectorResult) {
	for _, r := range results {
		if r.Verdict == models.VerdictError {
			detectorErrorsTotal.WithLabelValues(r.Detector).Inc()
		}
	}
}

// countRequests records per-endpoint request counts with ids collapsed
// out of the label to keep cardinality bounded.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		requestsTotal.WithLabelValues(routeLabel(r.URL.Path), r.Method, strconv.Itoa(wrapped.status)).Inc()
	})
}

func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/jobs/"):
		return "/api/v1/jobs/{id}"
	case strings.HasPrefix(path, "/api/v1/comparisons/"):
		return "/api/v1/comparisons/{id}"
	default:
		return path
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// generateID generates a UUID for a comparison
func generateID() string {
	uuid := make([]byte, 16)
	_, err := rand.Read(uuid)
	if err != nil {
		// Fallback to timestamp-based ID if random generation fails
		return time.Now().Format("20060102150405") + "-" + strconv.FormatInt(time.Now().UnixNano()%1000000, 10)
	}

	// Set version (4) and variant bits according to RFC 4122
	uuid[6] = (uuid[6] & 0x0f) | 0x40 // Version 4
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // Variant bits

	// Format as standard UUID string: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		hex.EncodeToString(uuid[0:4]),
		hex.EncodeToString(uuid[4:6]),
		hex.EncodeToString(uuid[6:8]),
		hex.EncodeToString(uuid[8:10]),
		hex.EncodeToString(uuid[10:16]))
}
