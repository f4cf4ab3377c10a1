package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// StreamingTimeout bounds the transfer routes without buffering them the way
// http.TimeoutHandler would. Two limits apply:
//   - maxDuration caps the whole transfer; a movie played end to end must
//     fit inside it.
//   - idleTimeout caps the gap between consecutive writes; when the upstream
//     stalls that long the transfer is considered dead and torn down.
//
// Writes go straight through to the client, so http.Flusher keeps working
// and Range replies are relayed as they arrive.
func StreamingTimeout(maxDuration, idleTimeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), maxDuration)
			defer cancel()

			// Connection deadlines back the context up: a Write blocked on a
			// dead client unblocks when the deadline fires.
			rc := http.NewResponseController(w)
			deadline := time.Now().Add(maxDuration)
			_ = rc.SetWriteDeadline(deadline)
			_ = rc.SetReadDeadline(deadline)

			tw := &transferWriter{
				ResponseWriter: w,
				rc:             rc,
				idleTimeout:    idleTimeout,
				cancel:         cancel,
			}
			tw.resetIdle()

			next.ServeHTTP(tw, r.WithContext(ctx))

			tw.mu.Lock()
			if tw.idleTimer != nil {
				tw.idleTimer.Stop()
			}
			tw.mu.Unlock()
		})
	}
}

// transferWriter wraps the response writer with an inactivity countdown.
// Every Write rearms it; if it ever fires, the request context is cancelled
// and the connection deadline is pulled in so in-flight I/O fails fast.
type transferWriter struct {
	http.ResponseWriter
	rc          *http.ResponseController
	idleTimeout time.Duration
	cancel      context.CancelFunc
	mu          sync.Mutex
	idleTimer   *time.Timer
}

func (tw *transferWriter) resetIdle() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.idleTimer != nil {
		tw.idleTimer.Stop()
	}

	tw.idleTimer = time.AfterFunc(tw.idleTimeout, func() {
		_ = tw.rc.SetWriteDeadline(time.Now())
		tw.cancel()
	})
}

func (tw *transferWriter) Write(b []byte) (int, error) {
	tw.resetIdle()
	return tw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the real writer through the wrap.
func (tw *transferWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}

func (tw *transferWriter) Flush() {
	if f, ok := tw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
