package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"flood-platform/internal/models"
	"flood-platform/internal/services"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// RiverInputHandler handles river input API endpoints
type RiverInputHandler struct {
	service *services.RiverInputService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRiverInputHandler creates a new river input handler
func NewRiverInputHandler(
	service *services.RiverInputService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *RiverInputHandler {
	return &RiverInputHandler{
		service: service,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GenerateRequest is the body of POST /api/river-inputs. The catchment is a
// GeoJSON Polygon geometry in the given projected CRS (default EPSG:2193).
type GenerateRequest struct {
	Catchment json.RawMessage `json:"catchment"`
	CRS       int             `json:"crs"`
}

// RefreshWaterwaysRequest is the body of POST /api/waterways/refresh. The
// bounding box is WGS84 [min_lon, min_lat, max_lon, max_lat].
type RefreshWaterwaysRequest struct {
	BBox [4]float64 `json:"bbox"`
}

// GenerateRiverInputs handles POST /api/river-inputs
func (h *RiverInputHandler) GenerateRiverInputs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/river-inputs").Observe(duration.Seconds())
	}()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	catchment, err := parseCatchment(req)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.GenerateRiverInputs(ctx, catchment)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.metrics.RecordAPIRequest("/api/river-inputs", r.Method, "200")
	h.sendJSON(w, result, http.StatusOK)
}

// ListRuns handles GET /api/river-inputs
func (h *RiverInputHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := 1
	limit := 20

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	runs, err := h.service.ListRuns(ctx, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_RUNS_ERROR] Failed to list runs", logging.Fields{}, err)
		h.sendError(w, r, "failed to retrieve runs", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/river-inputs", r.Method, "200")
	h.sendJSON(w, map[string]interface{}{
		"data":  runs,
		"page":  page,
		"limit": limit,
	}, http.StatusOK)
}

// RefreshWaterways handles POST /api/waterways/refresh
func (h *RiverInputHandler) RefreshWaterways(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RefreshWaterwaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.BBox[0] >= req.BBox[2] || req.BBox[1] >= req.BBox[3] {
		h.sendError(w, r, "bbox must be [min_lon, min_lat, max_lon, max_lat]", http.StatusBadRequest)
		return
	}

	bbox := orb.Bound{
		Min: orb.Point{req.BBox[0], req.BBox[1]},
		Max: orb.Point{req.BBox[2], req.BBox[3]},
	}

	count, err := h.service.RefreshWaterways(ctx, bbox)
	if err != nil {
		h.logger.Error(ctx, "[API_REFRESH_ERROR] Waterway refresh failed", logging.Fields{}, err)
		h.sendError(w, r, "failed to refresh waterways", http.StatusBadGateway)
		return
	}

	h.metrics.RecordAPIRequest("/api/waterways/refresh", r.Method, "200")
	h.sendJSON(w, map[string]int{"waterways": count}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *RiverInputHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.HealthCheck(ctx); err != nil {
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parseCatchment decodes the request's GeoJSON geometry into a catchment
// area. Only Polygon geometries are accepted.
func parseCatchment(req GenerateRequest) (models.CatchmentArea, error) {
	if len(req.Catchment) == 0 {
		return models.CatchmentArea{}, &models.ValidationError{
			Field:   "catchment",
			Message: "catchment geometry is required",
		}
	}

	geom, err := geojson.UnmarshalGeometry(req.Catchment)
	if err != nil {
		return models.CatchmentArea{}, &models.ValidationError{
			Field:   "catchment",
			Message: "catchment must be a GeoJSON geometry",
		}
	}

	polygon, ok := geom.Geometry().(orb.Polygon)
	if !ok {
		return models.CatchmentArea{}, &models.ValidationError{
			Field:   "catchment",
			Message: "catchment geometry must be a Polygon",
		}
	}

	crs := req.CRS
	if crs == 0 {
		crs = 2193
	}

	return models.CatchmentArea{Polygon: polygon, CRS: crs}, nil
}

// sendDomainError maps pipeline error types onto HTTP status codes:
// validation problems are the caller's fault, configuration problems need
// operator action, everything else is internal.
func (h *RiverInputHandler) sendDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *models.ValidationError
	var configErr *models.ConfigurationError

	switch {
	case errors.As(err, &validationErr):
		h.sendError(w, r, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &configErr):
		h.sendError(w, r, configErr.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error(r.Context(), "[API_GENERATE_ERROR] River input generation failed", logging.Fields{}, err)
		h.sendError(w, r, "river input generation failed", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *RiverInputHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *RiverInputHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all river input API routes
func (h *RiverInputHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/river-inputs", h.GenerateRiverInputs).Methods("POST")
	router.HandleFunc("/api/river-inputs", h.ListRuns).Methods("GET")
	router.HandleFunc("/api/waterways/refresh", h.RefreshWaterways).Methods("POST")
	router.HandleFunc("/api/docs", OpenAPISpec).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
