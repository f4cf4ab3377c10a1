package shareurl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vault-gateway/internal/model"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"path segment with discriminator", "https://www.terabox.com/s/1abc123", "abc123"},
		{"path segment without discriminator", "https://terabox.app/s/xyz789", "xyz789"},
		{"query parameter", "https://www.terabox.com/sharing/link?surl=xyz", "xyz"},
		{"query parameter with discriminator", "https://terabox.com/sharing/link?surl=1def456", "def456"},
		{"web share link", "https://dm.terabox.com/web/share/link?surl=abc", "abc"},
		{"wap share path", "https://www.1024terabox.com/wap/share/1qqq", "qqq"},
		{"uppercase host", "https://WWW.TERABOX.COM/s/1AbC", "AbC"},
		{"extra query params", "https://terabox.com/sharing/link?foo=bar&surl=zz9&x=1", "zz9"},
		{"trailing query on path form", "https://terabox.com/s/1pqr?pwd=1234", "pqr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.url)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveSameReferenceForBothForms(t *testing.T) {
	fromPath, err := Resolve("https://www.terabox.com/s/1abc123")
	assert.NoError(t, err)
	fromQuery, err2 := Resolve("https://www.terabox.com/sharing/link?surl=abc123")
	assert.NoError(t, err2)
	assert.Equal(t, fromPath, fromQuery)
}

func TestResolveRejectsNonShareLinks(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not a url",
		"ftp://terabox.com/s/1abc",
		"https://terabox.com/",
		"https://terabox.com/download?id=5",
		"https://terabox.com/sharing/link?other=abc",
		"/s/1abc123",
	}

	for _, raw := range cases {
		_, err := Resolve(raw)
		assert.ErrorIs(t, err, model.ErrInvalidShareURL, "url=%q", raw)
	}
}

func TestCanonicalHost(t *testing.T) {
	assert.Equal(t, "www.terabox.com", CanonicalHost("https://WWW.Terabox.COM/s/1abc"))
	assert.Equal(t, "", CanonicalHost("://bad"))
}
