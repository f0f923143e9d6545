package httpx

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/bsyilmaz/backend-simplemeet/internal/app"
	"github.com/bsyilmaz/backend-simplemeet/pkg/ratelimit"
)

type Middleware struct {
	cors   *cors.Cors
	rlimit *ratelimit.Limiter
}

// NewMiddleware builds the shared middleware stack from config
func NewMiddleware(cfg app.Config) *Middleware {
	return &Middleware{
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllow,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
		rlimit: ratelimit.New(30, time.Minute), // 30 req/min default
	}
}

// Wrap applies CORS only; used for the websocket and probe endpoints
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return m.cors.Handler(h)
}

// API applies CORS + rate limiting; the signaling socket itself is
// never rate limited, only the HTTP API surface
func (m *Middleware) API(h http.Handler) http.Handler {
	return m.cors.Handler(m.rlimit.Middleware(h))
}
