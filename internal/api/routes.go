package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Post("/process-video", processVideoHandler(cfg))
	r.Get("/search-pexels", searchFootageHandler(cfg))
	r.Post("/idea-to-video", ideaToVideoHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		}

		if cfg.Doctor != nil {
			report, err := cfg.Doctor.Get(r.Context())
			if err == nil && report != nil {
				resp.Dependencies = report
				if !report.Healthy {
					resp.Status = "degraded"
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}
