package scrape

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ErrKind classifies how a page fetch failed. Soft outcomes (non-HTML or
// empty body) are not failures: they yield ErrKindNone with empty text.
type ErrKind string

const (
	ErrKindNone    ErrKind = ""
	ErrKindTimeout ErrKind = "timeout"
	ErrKindDNS     ErrKind = "dns_failure"
	ErrKindHTTP    ErrKind = "http_error"
	ErrKindBlocked ErrKind = "blocked"
)

// PageResult is one fetch attempt. Consumed immediately by extraction, never
// persisted.
type PageResult struct {
	URL        string
	Rank       int
	StatusCode int
	Text       string
	Links      []string
	Kind       ErrKind
}

// Failed reports whether the fetch produced no usable page at all.
func (r PageResult) Failed() bool {
	return r.Kind != ErrKindNone
}

const (
	// DefaultUserAgent is a realistic browser identity. A meaningful share
	// of small-business sites reject unidentified clients with 403/503.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxTextBytes caps extracted text to bound downstream
	// pattern-matching cost.
	DefaultMaxTextBytes = 32 * 1024

	maxBodyBytes = 2 << 20
	maxPageLinks = 200
)

// Config tunes the fetcher. Zero values fall back to defaults.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxTextBytes int
}

// Fetcher retrieves pages and reduces them to readable text plus harvested
// links.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxTextBytes int
}

func NewFetcher(cfg Config) *Fetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxText := cfg.MaxTextBytes
	if maxText <= 0 {
		maxText = DefaultMaxTextBytes
	}
	return &Fetcher{
		client:       &http.Client{Timeout: timeout},
		userAgent:    ua,
		maxTextBytes: maxText,
	}
}

// Fetch retrieves one URL. It never returns an error: every failure mode is
// folded into the result's Kind so the calling pipeline can move on to the
// next candidate.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, rank int) PageResult {
	res := PageResult{URL: pageURL, Rank: rank}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		res.Kind = ErrKindDNS
		return res
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		res.Kind = classifyNetErr(err)
		return res
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	res.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable:
		res.Kind = ErrKindBlocked
		return res
	case resp.StatusCode/100 != 2:
		res.Kind = ErrKindHTTP
		return res
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		// Non-HTML body: soft fail, zero signals.
		return res
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.Kind = classifyNetErr(err)
		return res
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return res
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		// Unparseable markup contributes nothing but is not a fetch failure.
		return res
	}

	res.Links = harvestLinks(doc, pageURL)
	res.Text = f.extractText(doc, pageURL)
	return res
}

// extractText strips script/navigation noise and converts the remaining
// markup to readable plain text, capped at maxTextBytes.
func (f *Fetcher) extractText(doc *goquery.Document, pageURL string) string {
	doc.Find("script, style, noscript, iframe, svg, nav, header, footer, form").Remove()

	html, err := doc.Html()
	if err != nil {
		return capText(collapseWhitespace(doc.Text()), f.maxTextBytes)
	}

	conv := md.NewConverter(pageURL, true, nil)
	text, err := conv.ConvertString(html)
	if err != nil || strings.TrimSpace(text) == "" {
		text = collapseWhitespace(doc.Text())
	}
	return capText(text, f.maxTextBytes)
}

func harvestLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := map[string]struct{}{}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		abs.Fragment = ""
		u := abs.String()
		if _, ok := seen[u]; ok {
			return true
		}
		seen[u] = struct{}{}
		links = append(links, u)
		return len(links) < maxPageLinks
	})
	return links
}

func classifyNetErr(err error) ErrKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrKindTimeout
	}
	// DNS failures and refused/reset connections share a bucket.
	return ErrKindDNS
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capText truncates to at most max bytes without splitting a UTF-8 rune.
func capText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
