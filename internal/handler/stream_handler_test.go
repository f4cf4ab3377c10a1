package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-gateway/internal/model"
	"vault-gateway/internal/service"
)

type stubItemFinder struct {
	item *model.RemoteItem
}

func (f *stubItemFinder) GetByFileID(_ context.Context, fsID int64) (*model.RemoteItem, error) {
	if f.item == nil || f.item.FSID != fsID {
		return nil, model.ErrItemNotFound
	}
	clone := *f.item
	return &clone, nil
}

type emptyTokenStore struct{}

func (emptyTokenStore) ExpireActive(context.Context) error               { return nil }
func (emptyTokenStore) Insert(context.Context, model.AuthToken) error    { return nil }
func (emptyTokenStore) GetActive(context.Context) (*model.AuthToken, error) {
	return nil, model.ErrTokenNotFound
}
func (emptyTokenStore) TouchLastUsed(context.Context, string) error { return nil }
func (emptyTokenStore) MarkInvalid(context.Context, string) error   { return nil }

func newStreamHandlerFixture(t *testing.T, upstream http.HandlerFunc) (*StreamHandler, *chi.Mux) {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	finder := &stubItemFinder{item: &model.RemoteItem{
		FSID:  42,
		Name:  "movie.mkv",
		DLink: server.URL + "/file/42",
	}}

	streams := service.NewStreamService(finder, service.NewTokenService(emptyTokenStore{}), "https://www.terabox.com", "test-agent")
	handler := NewStreamHandler(streams)

	router := chi.NewRouter()
	router.Get("/stream/{fileID}", handler.Stream)
	router.Get("/download/{fileID}", handler.Download)
	return handler, router
}

// partialUpstream always answers 206, the way real direct-link hosts do even
// for range-less requests.
func partialUpstream(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/x-matroska")
		w.Header().Set("Content-Range", "bytes 0-4/5")
		w.Header().Set("Content-Length", "5")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(body))
	}
}

func TestStreamRewritesRangelessPartialContent(t *testing.T) {
	_, router := newStreamHandlerFixture(t, partialUpstream("chunk"))

	req := httptest.NewRequest(http.MethodGet, "/stream/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Range"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "chunk", rec.Body.String())
}

func TestStreamRewritesDegenerateRange(t *testing.T) {
	_, router := newStreamHandlerFixture(t, partialUpstream("chunk"))

	req := httptest.NewRequest(http.MethodGet, "/stream/42", nil)
	req.Header.Set("Range", "bytes=0-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Range"))
}

func TestStreamPreservesGenuineSubRange(t *testing.T) {
	_, router := newStreamHandlerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "bytes 1000-2000/5000")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("chunk"))
	})

	req := httptest.NewRequest(http.MethodGet, "/stream/42", nil)
	req.Header.Set("Range", "bytes=1000-2000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 1000-2000/5000", rec.Header().Get("Content-Range"))
}

func TestStreamSetsInlineDisposition(t *testing.T) {
	_, router := newStreamHandlerFixture(t, partialUpstream("chunk"))

	req := httptest.NewRequest(http.MethodGet, "/stream/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, `inline; filename=movie.mkv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "video/x-matroska", rec.Header().Get("Content-Type"))
}

func TestDownloadSetsAttachmentDisposition(t *testing.T) {
	_, router := newStreamHandlerFixture(t, partialUpstream("chunk"))

	req := httptest.NewRequest(http.MethodGet, "/download/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="movie.mkv"; filename*=UTF-8''movie.mkv`,
		rec.Header().Get("Content-Disposition"))
}

func TestDownloadDispositionNonASCIIFilename(t *testing.T) {
	server := httptest.NewServer(partialUpstream("chunk"))
	t.Cleanup(server.Close)

	finder := &stubItemFinder{item: &model.RemoteItem{
		FSID:  42,
		Name:  "电影 épisode.mkv",
		DLink: server.URL + "/file/42",
	}}
	streams := service.NewStreamService(finder, service.NewTokenService(emptyTokenStore{}), "https://www.terabox.com", "test-agent")

	router := chi.NewRouter()
	router.Get("/download/{fileID}", NewStreamHandler(streams).Download)

	req := httptest.NewRequest(http.MethodGet, "/download/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Both filename forms must be present: the plain one for clients that
	// never learned extended encoding, the UTF-8 one for everyone else.
	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, `filename="电影 épisode.mkv"`)
	assert.Contains(t, disposition, `filename*=UTF-8''%E7%94%B5%E5%BD%B1%20%C3%A9pisode.mkv`)
}

func TestDownloadIgnoresRangeHeader(t *testing.T) {
	var sawRange bool
	_, router := newStreamHandlerFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, sawRange = r.Header["Range"]
		partialUpstream("chunk")(w, r)
	})

	req := httptest.NewRequest(http.MethodGet, "/download/42", nil)
	req.Header.Set("Range", "bytes=1000-2000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.False(t, sawRange)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Range"))
}

func TestStreamExpiredLinkSignalsReauth(t *testing.T) {
	_, router := newStreamHandlerFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	req := httptest.NewRequest(http.MethodGet, "/stream/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "LINK_EXPIRED", resp.Error.Code)
	assert.True(t, resp.Error.NeedsAuth)
}

func TestStreamUpstreamFailure(t *testing.T) {
	_, router := newStreamHandlerFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/stream/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UPSTREAM_ERROR", resp.Error.Code)
}

func TestStreamUnknownItem(t *testing.T) {
	_, router := newStreamHandlerFixture(t, partialUpstream("chunk"))

	req := httptest.NewRequest(http.MethodGet, "/stream/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamRejectsNonNumericID(t *testing.T) {
	_, router := newStreamHandlerFixture(t, partialUpstream("chunk"))

	req := httptest.NewRequest(http.MethodGet, "/stream/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIsClientGone(t *testing.T) {
	assert.True(t, isClientGone(context.Canceled))
	assert.True(t, isClientGone(fmt.Errorf("write tcp: %w", syscall.EPIPE)))
	assert.True(t, isClientGone(fmt.Errorf("read tcp: %w", syscall.ECONNRESET)))
	assert.False(t, isClientGone(errors.New("upstream hiccup")))
}

func TestRewriteRangeStatusRules(t *testing.T) {
	cases := []struct {
		name        string
		upstream    int
		clientRange string
		wantStatus  int
		wantDrop    bool
	}{
		{"no range gets 200", http.StatusPartialContent, "", http.StatusOK, true},
		{"degenerate range gets 200", http.StatusPartialContent, "bytes=0-", http.StatusOK, true},
		{"sub-range keeps 206", http.StatusPartialContent, "bytes=1000-2000", http.StatusPartialContent, false},
		{"open-ended seek keeps 206", http.StatusPartialContent, "bytes=500-", http.StatusPartialContent, false},
		{"plain 200 passes through", http.StatusOK, "", http.StatusOK, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, drop := rewriteRangeStatus(tc.upstream, tc.clientRange)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantDrop, drop)
		})
	}
}
