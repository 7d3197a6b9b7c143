package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactPageHTML = `<!DOCTYPE html>
<html><head><title>Contact</title>
<script>window.analytics = {};</script>
<style>body { color: red; }</style>
</head><body>
<nav><a href="/home">Home</a></nav>
<h1>Get in touch</h1>
<p>Email us at hello@bluebottlecoffee.com or call (510) 555-0199.</p>
<a href="/about">About</a>
<a href="https://www.facebook.com/bluebottle">Facebook</a>
<a href="/about#team">Team anchor</a>
<a href="mailto:hello@bluebottlecoffee.com">Mail</a>
<footer>Copyright</footer>
</body></html>`

func TestFetch_ExtractsTextAndLinks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(contactPageHTML))
	}))
	defer srv.Close()

	f := NewFetcher(Config{})
	res := f.Fetch(context.Background(), srv.URL, 1)

	require.False(t, res.Failed(), "kind: %q", res.Kind)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, res.Rank)

	assert.Contains(t, res.Text, "hello@bluebottlecoffee.com")
	assert.Contains(t, res.Text, "(510) 555-0199")
	assert.NotContains(t, res.Text, "window.analytics", "script content must be stripped")
	assert.NotContains(t, res.Text, "Home", "nav content must be stripped")

	// Relative hrefs resolved against the page URL, fragments stripped,
	// duplicates collapsed, non-http schemes dropped.
	assert.Contains(t, res.Links, srv.URL+"/about")
	assert.Contains(t, res.Links, "https://www.facebook.com/bluebottle")
	for _, l := range res.Links {
		assert.NotContains(t, l, "#")
		assert.NotContains(t, l, "mailto:")
	}
	count := 0
	for _, l := range res.Links {
		if l == srv.URL+"/about" {
			count++
		}
	}
	assert.Equal(t, 1, count, "resolved links are deduplicated")
}

func TestFetch_SendsBrowserUserAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>UA " + r.Header.Get("User-Agent") + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(Config{})
	res := f.Fetch(context.Background(), srv.URL, 0)

	require.False(t, res.Failed())
	assert.Contains(t, res.Text, "Chrome/120")
}

func TestFetch_BlockedStatuses(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))

		f := NewFetcher(Config{})
		res := f.Fetch(context.Background(), srv.URL, 0)
		srv.Close()

		assert.Equal(t, ErrKindBlocked, res.Kind, "status %d", code)
		assert.Equal(t, code, res.StatusCode)
		assert.True(t, res.Failed())
	}
}

func TestFetch_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(Config{})
	res := f.Fetch(context.Background(), srv.URL, 0)

	assert.Equal(t, ErrKindHTTP, res.Kind)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestFetch_NonHTMLIsSoft(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f := NewFetcher(Config{})
	res := f.Fetch(context.Background(), srv.URL, 0)

	assert.False(t, res.Failed(), "non-HTML bodies yield zero signals, not a failure")
	assert.Empty(t, res.Text)
	assert.Empty(t, res.Links)
}

func TestFetch_EmptyBodyIsSoft(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer srv.Close()

	f := NewFetcher(Config{})
	res := f.Fetch(context.Background(), srv.URL, 0)

	assert.False(t, res.Failed())
	assert.Empty(t, res.Text)
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>late</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(Config{Timeout: 50 * time.Millisecond})
	res := f.Fetch(context.Background(), srv.URL, 0)

	assert.Equal(t, ErrKindTimeout, res.Kind)
}

func TestFetch_UnreachableHost(t *testing.T) {
	t.Parallel()

	f := NewFetcher(Config{Timeout: 2 * time.Second})
	res := f.Fetch(context.Background(), "http://definitely-not-a-real-host.invalid", 0)

	assert.Equal(t, ErrKindDNS, res.Kind)
}

func TestFetch_TextCappedAtConfiguredBytes(t *testing.T) {
	t.Parallel()

	big := make([]byte, 0, 8*1024)
	big = append(big, []byte("<html><body><p>")...)
	for i := 0; i < 2048; i++ {
		big = append(big, []byte("word ")...)
	}
	big = append(big, []byte("</p></body></html>")...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(big)
	}))
	defer srv.Close()

	f := NewFetcher(Config{MaxTextBytes: 100})
	res := f.Fetch(context.Background(), srv.URL, 0)

	require.False(t, res.Failed())
	assert.LessOrEqual(t, len(res.Text), 100)
}

func TestCapTextTrimsToRuneBoundary(t *testing.T) {
	t.Parallel()

	// Every odd byte offset in this string lands inside a two-byte rune.
	s := strings.Repeat("é", 10)

	got := capText(s, 11)

	assert.True(t, utf8.ValidString(got), "cap must not split a rune")
	assert.Equal(t, strings.Repeat("é", 5), got)
	assert.Equal(t, s, capText(s, 20), "a string at the cap is untouched")
}
