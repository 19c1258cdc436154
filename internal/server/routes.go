package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /state", h.GetState)
	mux.HandleFunc("POST /actions", h.DispatchAction)
	mux.HandleFunc("POST /taps", h.Tap)

	mux.HandleFunc("POST /markers", h.CreateMarker)
	mux.HandleFunc("DELETE /markers/{id}", h.DeleteMarker)
	mux.HandleFunc("POST /markers/{id}/nudge", h.NudgeMarker)
	mux.HandleFunc("POST /markers/{id}/metrics", h.MarkerMetrics)
	mux.HandleFunc("GET /markers/{id}/details", h.MarkerDetails)

	mux.HandleFunc("POST /regions/{id}/metrics", h.RegionMetrics)
	mux.HandleFunc("GET /regions/{id}/summary", h.RegionSummary)

	mux.HandleFunc("GET /export", h.Export)
	mux.HandleFunc("POST /import", h.Import)

	mux.HandleFunc("POST /audio/toggle", h.ToggleAudio)
	mux.HandleFunc("POST /audio/rate", h.CycleRate)
	mux.HandleFunc("POST /audio/status", h.TransportStatus)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
