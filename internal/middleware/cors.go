package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser media players on other origins to seek: Range must be
// an allowed request header and Content-Range an exposed response header.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Range", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length", "Content-Range", "Accept-Ranges", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: false,
	})

	return handler.Handler
}
