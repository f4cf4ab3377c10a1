package terabox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-gateway/internal/model"
)

func testAuth() *model.AuthData {
	return &model.AuthData{
		Provider: "terabox",
		JSToken:  "ABCDEF0123456789ABCDEF",
		Cookies: []model.CapturedCookie{
			{Name: "ndus", Value: "secret", Domain: ".terabox.com"},
			{Name: "lang", Value: "en", Domain: ".terabox.com"},
			{Name: "_ga", Value: "tracker", Domain: ".google.com"},
		},
		CapturedAt: time.Now(),
	}
}

func TestListShareRequestShape(t *testing.T) {
	var gotQuery map[string]string
	var gotCookie string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(`{"errno":0,"list":[{"fs_id":1,"server_filename":"a.mp4","path":"/a.mp4","isdir":0,"size":10,"dlink":"https://d/a"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", 5*time.Second)
	items, err := client.ListShare(context.Background(), "abc123", testAuth())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "1abc123", gotQuery["shorturl"])
	assert.Equal(t, "1", gotQuery["root"])
	assert.Equal(t, "100", gotQuery["num"])
	assert.Equal(t, "1", gotQuery["page"])
	assert.Equal(t, "name", gotQuery["order"])
	assert.Equal(t, testAuth().JSToken, gotQuery["jsToken"])

	// Only remote-domain cookies travel; third-party ones do not.
	assert.Contains(t, gotCookie, "ndus=secret")
	assert.Contains(t, gotCookie, "lang=en")
	assert.NotContains(t, gotCookie, "_ga")
}

func TestListShareUnwrapsSingleFolder(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("root") == "1" {
			_, _ = w.Write([]byte(`{"errno":0,"list":[{"fs_id":7,"server_filename":"Season 1","path":"/Season 1","isdir":1}]}`))
			return
		}
		assert.Equal(t, "/Season 1", r.URL.Query().Get("dir"))
		_, _ = w.Write([]byte(`{"errno":0,"list":[
			{"fs_id":10,"server_filename":"e01.mkv","path":"/Season 1/e01.mkv","isdir":0,"size":1536,"dlink":"https://d/1"},
			{"fs_id":11,"server_filename":"e02.mkv","path":"/Season 1/e02.mkv","isdir":0,"size":2048,"dlink":"https://d/2"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", 5*time.Second)
	items, err := client.ListShare(context.Background(), "abc", testAuth())
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	require.Len(t, items, 2)
	assert.Equal(t, "e01.mkv", items[0].Name)
	assert.Equal(t, "1.50 KB", items[0].SizeText)
	assert.Equal(t, model.CategoryVideo, items[0].Category)
	assert.Equal(t, "https://d/2", items[1].DLink)
}

func TestListShareDoesNotRecurseDeeper(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("root") == "1" {
			_, _ = w.Write([]byte(`{"errno":0,"list":[{"fs_id":7,"server_filename":"outer","path":"/outer","isdir":1}]}`))
			return
		}
		// Inner listing is itself a single folder; it must NOT be followed.
		_, _ = w.Write([]byte(`{"errno":0,"list":[{"fs_id":8,"server_filename":"inner","path":"/outer/inner","isdir":1}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", 5*time.Second)
	items, err := client.ListShare(context.Background(), "abc", testAuth())
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Empty(t, items)
}

func TestListShareRemoteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errno":-9,"errmsg":"share expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", 5*time.Second)
	_, err := client.ListShare(context.Background(), "abc", testAuth())

	var apiErr *model.RemoteAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -9, apiErr.Errno)
}

func TestListShareHTMLBodyIsUnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body>Please sign in</body></html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", 5*time.Second)
	_, err := client.ListShare(context.Background(), "abc", testAuth())

	assert.ErrorIs(t, err, model.ErrUnexpectedResponse)

	var apiErr *model.RemoteAPIError
	assert.False(t, errors.As(err, &apiErr),
		"stale-session detection must stay distinct from a structured API error")
}

func TestCookieHeaderFiltersDomains(t *testing.T) {
	header := CookieHeader([]model.CapturedCookie{
		{Name: "ndus", Value: "a", Domain: ".terabox.com"},
		{Name: "csrf", Value: "b", Domain: "www.1024terabox.com"},
		{Name: "sid", Value: "c", Domain: "accounts.example.org"},
	})

	assert.Equal(t, "ndus=a; csrf=b", header)
}
