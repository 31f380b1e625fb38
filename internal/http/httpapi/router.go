package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"virezo-server/internal/http/handlers"
	"virezo-server/internal/middleware"
)

// Options configures the router's middleware chain.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

// NewRouter assembles the API routes with the shared middleware chain.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.ClientGeo(opts.CountryLookup))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/videos", func(r chi.Router) {
		limit := opts.RateLimitPerMin
		if limit <= 0 {
			limit = 30
		}
		r.With(middleware.RateLimit(limit, time.Minute)).Post("/generate", app.VideosGenerate)
		r.Get("/generate/status", app.VideoStatus)
	})

	return r
}
