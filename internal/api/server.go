// Package api exposes the generation pipeline over HTTP. The handlers
// emit only the core output contract (entity lists); presentation
// concerns stay on the client side.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/config"
	"github.com/sells-group/mapscene/internal/scene"
	"github.com/sells-group/mapscene/pkg/overpass"
)

// Server holds the handler dependencies.
type Server struct {
	svc *overpass.Service
	cfg *config.Config

	// One generation at a time; concurrent requests are rejected, not
	// queued, matching the generator's in-flight policy.
	genMu sync.Mutex
}

// NewServer creates an API server over an explicitly provided fetch
// service.
func NewServer(svc *overpass.Service, cfg *config.Config) *Server {
	return &Server{svc: svc, cfg: cfg}
}

// Router builds the chi router with CORS enabled for browser-based
// tooling.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/cache/stats", s.handleCacheStats)
	r.Post("/api/generate", s.handleGenerate)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CacheStats())
}

type generateRequest struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m,omitempty"`
	Seed    uint64  `json:"seed,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Lat == 0 && req.Lon == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon are required"})
		return
	}

	if !s.genMu.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "generation already in flight"})
		return
	}
	defer s.genMu.Unlock()

	genCfg := s.cfg.Generation
	if req.RadiusM > 0 {
		genCfg.RadiusM = req.RadiusM
	}
	if req.Seed != 0 {
		genCfg.Seed = req.Seed
	}

	gen := scene.NewGenerator(s.svc, genCfg)
	if err := gen.Start(r.Context(), req.Lat, req.Lon); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	out, err := gen.Run(r.Context())
	if err != nil {
		zap.L().Error("api: generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "generation failed"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}
