// Package leadapi is a minimal HTTP client for a remote lead sink: a CRM-ish
// service that stores enriched leads keyed by lead_id. The wire format for
// lead payloads is the same stable CSV contract the local output uses, so
// the sink and the local file stay interchangeable.
package leadapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the lead endpoints used by this module.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// NewClient constructs a client for a lead API base URL, e.g.
// "https://leads.example.com/api". defaultCAPath is optional and, when
// provided, is used as the trust store for TLS.
func NewClient(baseURL, token, defaultCAPath string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	hc, err := newHTTPClient(defaultCAPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(token),
		http:    hc,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("lead api base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse lead api base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("lead api base URL must include a host (got %q)", raw)
	}
	// Ensure the base path ends with a slash so ResolveReference treats it as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func newHTTPClient(defaultCAPath string) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if strings.TrimSpace(defaultCAPath) != "" {
		b, err := os.ReadFile(strings.TrimSpace(defaultCAPath))
		if err != nil {
			return nil, fmt.Errorf("read DEFAULT_CA_PATH file: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(b); !ok {
			return nil, fmt.Errorf("parse DEFAULT_CA_PATH PEM: no certs found")
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

type knownIDsResponse struct {
	LeadIDs []string `json:"lead_ids"`
}

// KnownLeadIDs returns the lead IDs the sink already holds.
func (c *Client) KnownLeadIDs(ctx context.Context) ([]string, error) {
	u := c.resolve("v1/leads/ids")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError("knownLeadIDs", resp, b)
	}

	var out knownIDsResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse known lead ids response: %w", err)
	}
	return out.LeadIDs, nil
}

type appendResponse struct {
	Added int `json:"added"`
}

// AppendLeadsCSV uploads leads as a CSV document (header plus rows). The
// sink skips lead IDs it already holds and reports how many rows it added.
func (c *Client) AppendLeadsCSV(ctx context.Context, csvBody []byte) (int, error) {
	u := c.resolve("v1/leads/append")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(csvBody))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode/100 != 2 {
		return 0, newHTTPError("appendLeads", resp, b)
	}

	var out appendResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, fmt.Errorf("parse append response: %w", err)
	}
	return out.Added, nil
}

// ExportCSV downloads every stored lead as CSV bytes.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	u := c.resolve("v1/leads/export")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError("exportLeads", resp, b)
	}
	return b, nil
}

func (c *Client) resolve(relPath string) *url.URL {
	relPath = strings.TrimPrefix(relPath, "/")
	rel := &url.URL{Path: relPath}
	return c.baseURL.ResolveReference(rel)
}
