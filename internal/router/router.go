package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vault-gateway/internal/config"
	"vault-gateway/internal/handler"
	"vault-gateway/internal/middleware"
)

func New(
	cfg *config.Config,
	captureHandler *handler.CaptureHandler,
	containerHandler *handler.ContainerHandler,
	streamHandler *handler.StreamHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/capture/start", captureHandler.Start)
			auth.Get("/capture/status", captureHandler.Status)
			auth.Post("/capture/close", captureHandler.Close)
			auth.Get("/token", captureHandler.Token)
		})

		api.Route("/containers", func(containers chi.Router) {
			containers.Post("/", containerHandler.Create)
			containers.Get("/", containerHandler.List)
			containers.Get("/{id}", containerHandler.Get)
			containers.Delete("/{id}", containerHandler.Delete)
			containers.Get("/{id}/items", containerHandler.Items)
			containers.Post("/{id}/public-fetch", containerHandler.PublicFetch)
			containers.Post("/{id}/auth-fetch", containerHandler.AuthFetch)
		})
	})

	// Transfer routes sit outside the JSON timeout: a movie takes hours, and
	// http.TimeoutHandler would buffer the whole body.
	r.Group(func(transfers chi.Router) {
		transfers.Use(middleware.StreamingTimeout(cfg.StreamMaxDuration, cfg.StreamIdleTimeout))
		transfers.Get("/stream/{fileID}", streamHandler.Stream)
		transfers.Get("/download/{fileID}", streamHandler.Download)
	})

	return r
}
