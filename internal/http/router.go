package httpx

import (
	"log/slog"
	"net/http"

	"github.com/bsyilmaz/backend-simplemeet/internal/app"
	"github.com/bsyilmaz/backend-simplemeet/internal/room"
	"github.com/bsyilmaz/backend-simplemeet/internal/ws"
	"github.com/bsyilmaz/backend-simplemeet/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, reg *room.Registry) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Registry: reg}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("GET /{$}", mw.Wrap(http.HandlerFunc(api.Status)))
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket signaling endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Diagnostics API
	mux.Handle("GET /api/rooms", mw.API(http.HandlerFunc(api.Rooms)))

	logger.Debug("router.ready", "cors", cfg.CORSAllow)
	return mux
}
