// Package gemini implements web search through the Gemini API's GoogleSearch
// grounding tool. The model is asked to quote what it finds rather than
// summarize, so the downstream pattern extractor sees raw contact strings.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/leadsmith/leadsmith/internal/search"
	"github.com/leadsmith/leadsmith/pkg/pipeline/core"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Searcher struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Searcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

func (s *Searcher) Search(ctx context.Context, query string) (search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return search.Result{}, errors.New("empty query")
	}

	resp, err := s.client.Models.GenerateContent(
		ctx,
		s.model,
		genai.Text(buildPrompt(query)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount: 1,
		},
	)
	if err != nil {
		return search.Result{}, classifyErr(err)
	}

	return search.Result{
		Snippets: strings.TrimSpace(resp.Text()),
		Sources:  extractSources(resp),
	}, nil
}

func buildPrompt(query string) string {
	// The extractor downstream works on literal strings, so the model must
	// quote addresses and numbers verbatim instead of paraphrasing them.
	return strings.TrimSpace(`
Search the web for the query below and report any contact details you find:
email addresses, phone numbers, social profile URLs, named staff with titles.
Quote emails, phone numbers, and URLs exactly as they appear in the sources.
If you find nothing, reply with "no results".

Query: ` + query + `
`)
}

func classifyErr(err error) error {
	// Wrap transient failures so the worker pool will retry with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: err}
	}
	return err
}

func extractSources(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	c := resp.Candidates[0]
	if c.GroundingMetadata == nil {
		return nil
	}

	var out []string
	for _, chunk := range c.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if strings.TrimSpace(chunk.Web.URI) != "" {
			out = append(out, strings.TrimSpace(chunk.Web.URI))
		}
	}
	return dedupePreserveOrder(out)
}

func dedupePreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
