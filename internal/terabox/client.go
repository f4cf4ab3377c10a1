// Package terabox speaks the remote host's listing API. It never scrapes
// pages; the browser-driven paths live in internal/browser.
package terabox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vault-gateway/internal/model"
	"vault-gateway/internal/util"
)

// listingPageSize caps the authenticated listing to a single page. Larger
// remote folders truncate; a known scope limit, kept deliberately.
const listingPageSize = 100

// cookieDomainHints marks the cookie domains that matter for remote calls.
var cookieDomainHints = []string{"terabox", "1024tera", "dubox"}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewClient(baseURL string, userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

// ListShare retrieves the authenticated listing for a share reference. When
// the share's only top-level entry is a directory, the listing is unwrapped
// one level: the directory's own items are returned instead of the wrapper.
// Deeper nesting is not followed.
func (c *Client) ListShare(ctx context.Context, ref string, auth *model.AuthData) ([]model.RemoteItem, error) {
	entries, err := c.list(ctx, ref, auth, "")
	if err != nil {
		return nil, err
	}

	if len(entries) == 1 && entries[0].IsDir != 0 {
		entries, err = c.list(ctx, ref, auth, entries[0].Path)
		if err != nil {
			return nil, err
		}
	}

	items := make([]model.RemoteItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir != 0 {
			continue
		}
		items = append(items, mapEntry(entry))
	}

	return items, nil
}

func (c *Client) list(ctx context.Context, ref string, auth *model.AuthData, dir string) ([]listEntry, error) {
	params := url.Values{}
	params.Set("app_id", "250528")
	params.Set("web", "1")
	params.Set("channel", "dubox")
	params.Set("clienttype", "0")
	params.Set("jsToken", auth.JSToken)
	params.Set("shorturl", "1"+ref)
	params.Set("page", "1")
	params.Set("num", fmt.Sprintf("%d", listingPageSize))
	params.Set("order", "name")
	params.Set("desc", "0")
	if dir == "" {
		params.Set("root", "1")
	} else {
		params.Set("dir", dir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/share/list?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if cookie := CookieHeader(auth.Cookies); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call listing API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read listing response: %w", err)
	}

	// A stale session makes the host silently answer with an HTML login page
	// instead of JSON. That means "re-authenticate", not "retry", so it gets
	// its own error distinct from a structured API failure.
	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("listing body is not JSON: %w", model.ErrUnexpectedResponse)
	}

	if parsed.Errno != 0 {
		return nil, &model.RemoteAPIError{Errno: parsed.Errno}
	}

	return parsed.List, nil
}

func mapEntry(entry listEntry) model.RemoteItem {
	size := entry.Size
	return model.RemoteItem{
		FSID:     entry.FSID,
		Name:     entry.ServerFilename,
		Path:     entry.Path,
		IsFolder: false,
		Size:     &size,
		SizeText: util.HumanSize(size),
		Category: util.CategoryForName(entry.ServerFilename),
		MD5:      entry.MD5,
		DLink:    entry.DLink,
		Thumbs:   entry.Thumbs,
	}
}

// CookieHeader assembles a Cookie header from a captured cookie set, keeping
// only the remote host's domain family.
func CookieHeader(cookies []model.CapturedCookie) string {
	var parts []string
	for _, c := range cookies {
		if !relevantDomain(c.Domain) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// FilterCookies keeps only the cookies the remote host's domain family set.
// The capture controller runs a raw browser profile dump through this before
// persisting anything.
func FilterCookies(cookies []model.CapturedCookie) []model.CapturedCookie {
	filtered := make([]model.CapturedCookie, 0, len(cookies))
	for _, c := range cookies {
		if relevantDomain(c.Domain) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func relevantDomain(domain string) bool {
	lowered := strings.ToLower(domain)
	for _, hint := range cookieDomainHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}
