package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"vault-gateway/internal/service"
	"vault-gateway/pkg/apierror"
)

type StreamHandler struct {
	streams *service.StreamService
}

func NewStreamHandler(streams *service.StreamService) *StreamHandler {
	return &StreamHandler{streams: streams}
}

// hopHeaders are never forwarded from the upstream response; the gateway
// writes its own transfer framing and disposition.
var hopHeaders = map[string]bool{
	"Transfer-Encoding":   true,
	"Connection":          true,
	"Keep-Alive":          true,
	"Content-Encoding":    true,
	"Content-Disposition": true,
	"Set-Cookie":          true,
}

// rewriteRangeStatus maps the upstream status to what the media client
// expects. Upstreams answer 206 even to range-less requests; a client that
// sent no Range header (or the degenerate "bytes=0-") must see a plain 200
// with no Content-Range, while a genuine sub-range keeps the 206.
func rewriteRangeStatus(upstreamStatus int, clientRange string) (status int, dropContentRange bool) {
	if upstreamStatus != http.StatusPartialContent {
		return upstreamStatus, false
	}
	if clientRange == "" || clientRange == "bytes=0-" {
		return http.StatusOK, true
	}
	return http.StatusPartialContent, false
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

func (h *StreamHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, attachment bool) {
	fsID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "file id must be numeric", "fileID", http.StatusBadRequest))
		return
	}

	// Downloads have no range semantics: the client's Range header is not
	// forwarded and the transfer is always a whole file.
	clientRange := ""
	if !attachment {
		clientRange = r.Header.Get("Range")
	}

	up, err := h.streams.Open(r.Context(), fsID, clientRange)
	if err != nil {
		writeError(w, err)
		return
	}
	defer up.Body.Close()

	for name, values := range up.Header {
		if hopHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	var status int
	if attachment {
		status = up.Status
		if status == http.StatusPartialContent {
			status = http.StatusOK
		}
		w.Header().Del("Content-Range")
		w.Header().Set("Content-Disposition", attachmentDisposition(up.Item.Name))
	} else {
		var dropContentRange bool
		status, dropContentRange = rewriteRangeStatus(up.Status, clientRange)
		if dropContentRange {
			w.Header().Del("Content-Range")
		}
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": up.Item.Name}))
		w.Header().Set("Accept-Ranges", "bytes")
	}
	w.Header().Set("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")

	w.WriteHeader(status)

	if _, err := io.Copy(w, up.Body); err != nil {
		// Headers are already out; a broken pipe here usually means the
		// player seeked or the client went away.
		if !isClientGone(err) {
			slog.Warn("transfer interrupted", "fs_id", fsID, "error", err)
		}
	}
}

// attachmentDisposition carries the filename in both the plain and the
// RFC 5987 extended form, so clients on either side of that spec see a name.
func attachmentDisposition(name string) string {
	fallback := strings.NewReplacer(`\`, "_", `"`, "_").Replace(name)
	return `attachment; filename="` + fallback + `"; filename*=UTF-8''` + url.PathEscape(name)
}

func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
