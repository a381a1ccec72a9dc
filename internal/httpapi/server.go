package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nnrunner/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Layers() []types.LayerInfo
	Status() types.StatusResponse
	Offload(depth int, inputData string) (types.ResultMessage, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsOptions != nil {
		r.Use(cors.Handler(*corsOptions))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := handlers{svc: svc}
	r.Get("/layers", h.layers)
	r.Get("/status", h.status)
	r.Post("/offload", h.offload)
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// layers godoc
//
//	@Summary	List compiled layers
//	@Produce	json
//	@Success	200	{object}	types.LayersResponse
//	@Router		/layers [get]
func (h handlers) layers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.LayersResponse{Layers: h.svc.Layers()})
}

// status godoc
//
//	@Summary	Device and session controller status
//	@Produce	json
//	@Success	200	{object}	types.StatusResponse
//	@Router		/status [get]
func (h handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// offload godoc
//
//	@Summary	Run layers 0..offloading_layer_index on an input grid
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.InferenceRequest	true	"Offload request"
//	@Success	200		{object}	types.ResultMessage
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Failure	415		{object}	types.ErrorResponse
//	@Failure	429		{object}	types.ErrorResponse
//	@Failure	500		{object}	types.ErrorResponse
//	@Failure	503		{object}	types.ErrorResponse
//	@Router		/offload [post]
func (h handlers) offload(w http.ResponseWriter, r *http.Request) {
	// Content-Type check
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", "")
		return
	}
	if serverBaseCtx.Err() != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "shutting down", "")
		return
	}
	// Limit body size (configurable, default 1MiB)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.InferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		CountOffloadRejection("")
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	if req.InputData == "" {
		CountOffloadRejection("")
		writeJSONError(w, http.StatusBadRequest, "input_data is required", "")
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	logRequest(r, lvl, LevelDebug, "offload start", map[string]any{"offloading_layer_index": req.OffloadingLayerIndex})
	res, err := h.svc.Offload(req.OffloadingLayerIndex, req.InputData)
	if err != nil {
		status, kind := classify(err)
		CountOffloadRejection(kind)
		writeJSONError(w, status, err.Error(), kind)
		logOutcome(r, lvl, status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
	logOutcome(r, lvl, http.StatusOK, start, nil)
}

func (h handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("registering"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
