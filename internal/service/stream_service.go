package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"

	"vault-gateway/internal/model"
)

type ItemFinder interface {
	GetByFileID(ctx context.Context, fsID int64) (*model.RemoteItem, error)
}

// Upstream is one open proxied transfer. Body must be closed by the caller.
type Upstream struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
	Item   *model.RemoteItem
}

// StreamService opens direct-link transfers against the remote host. Direct
// links redirect to per-request CDN hosts, so the client carries a cookie jar
// and no global timeout; lifetime is bounded by the request context.
type StreamService struct {
	items     ItemFinder
	tokens    *TokenService
	client    *http.Client
	baseURL   string
	userAgent string
}

func NewStreamService(items ItemFinder, tokens *TokenService, baseURL, userAgent string) *StreamService {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &StreamService{
		items:     items,
		tokens:    tokens,
		client:    &http.Client{Jar: jar},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// Open starts an upstream transfer for the given file, forwarding the
// client's Range header verbatim. The credential snapshot is taken once at
// open time; a capture completing mid-transfer does not affect it.
func (s *StreamService) Open(ctx context.Context, fsID int64, rangeHeader string) (*Upstream, error) {
	item, err := s.items.GetByFileID(ctx, fsID)
	if err != nil {
		return nil, err
	}
	if item.DLink == "" {
		return nil, model.ErrNoLinkAvailable
	}

	cookieHeader := s.tokens.CookieHeaderSnapshot(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.DLink, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Referer", s.baseURL+"/")
	req.Header.Set("Origin", s.baseURL)
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact upstream: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, model.ErrLinkExpired
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, &model.UpstreamError{Status: resp.StatusCode}
	}

	return &Upstream{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   resp.Body,
		Item:   item,
	}, nil
}
