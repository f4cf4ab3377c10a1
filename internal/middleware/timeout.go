package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds the JSON API routes with http.TimeoutHandler. Transfer
// routes must never sit behind it: TimeoutHandler buffers the whole response
// body, which for a movie means buffering the movie.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	body := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, body)
	}
}
