// Package gemini implements model-assisted contact extraction with the
// Gemini structured-output API. It reads already-scraped page text, so it
// needs no search grounding; the response schema keeps the output parseable.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/pkg/pipeline/core"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Extractor struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Extractor, error) {
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
	return &Extractor{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

type responseSchema struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
	Social struct {
		Facebook  string `json:"facebook"`
		Twitter   string `json:"twitter"`
		LinkedIn  string `json:"linkedin"`
		Instagram string `json:"instagram"`
		YouTube   string `json:"youtube"`
		TikTok    string `json:"tiktok"`
	} `json:"social"`
	Hours  string `json:"hours"`
	People []struct {
		Name     string `json:"name"`
		Title    string `json:"title"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		LinkedIn string `json:"linkedin"`
	} `json:"people"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"emails": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"phones": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"social": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"facebook":  {Type: genai.TypeString},
				"twitter":   {Type: genai.TypeString},
				"linkedin":  {Type: genai.TypeString},
				"instagram": {Type: genai.TypeString},
				"youtube":   {Type: genai.TypeString},
				"tiktok":    {Type: genai.TypeString},
			},
		},
		"hours": {Type: genai.TypeString},
		"people": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"title":    {Type: genai.TypeString},
					"email":    {Type: genai.TypeString},
					"phone":    {Type: genai.TypeString},
					"linkedin": {Type: genai.TypeString},
				},
				Required: []string{"name"},
			},
		},
	},
	Required: []string{"emails", "phones", "hours", "people"},
}

func (x *Extractor) ExtractContacts(ctx context.Context, seed lead.BusinessSeed, pageText string) (lead.ContactSignals, error) {
	if strings.TrimSpace(pageText) == "" {
		return lead.ContactSignals{}, errors.New("empty page text")
	}

	resp, err := x.client.Models.GenerateContent(
		ctx,
		x.model,
		genai.Text(buildPrompt(seed.Name, pageText)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return lead.ContactSignals{}, classifyErr(err)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return lead.ContactSignals{}, fmt.Errorf("gemini: parse structured json: %w", err)
	}
	return toSignals(parsed), nil
}

func toSignals(parsed responseSchema) lead.ContactSignals {
	sig := lead.ContactSignals{
		Emails: trimAll(parsed.Emails),
		Phones: trimAll(parsed.Phones),
		Hours:  strings.TrimSpace(parsed.Hours),
	}

	social := map[string]string{
		lead.PlatformFacebook:  strings.TrimSpace(parsed.Social.Facebook),
		lead.PlatformTwitter:   strings.TrimSpace(parsed.Social.Twitter),
		lead.PlatformLinkedIn:  strings.TrimSpace(parsed.Social.LinkedIn),
		lead.PlatformInstagram: strings.TrimSpace(parsed.Social.Instagram),
		lead.PlatformYouTube:   strings.TrimSpace(parsed.Social.YouTube),
		lead.PlatformTikTok:    strings.TrimSpace(parsed.Social.TikTok),
	}
	for platform, raw := range social {
		if raw == "" || !validHTTPURL(raw) {
			delete(social, platform)
		}
	}
	if len(social) > 0 {
		sig.Social = social
	}

	for _, p := range parsed.People {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		sig.People = append(sig.People, lead.Person{
			Name:       name,
			Title:      strings.TrimSpace(p.Title),
			Email:      strings.TrimSpace(p.Email),
			Phone:      strings.TrimSpace(p.Phone),
			LinkedIn:   strings.TrimSpace(p.LinkedIn),
			SourcePage: "structured_extraction",
		})
	}
	return sig
}

func buildPrompt(name, pageText string) string {
	// Models otherwise invent plausible-looking addresses; the prompt pins
	// everything to verbatim quotes from the supplied text.
	return strings.TrimSpace(`
You are a contact extraction tool. The text below was scraped from the
website of the business "` + name + `". Extract contact details into the
required JSON shape.

Rules:
- Only report values that appear verbatim in the text. Never invent data.
- De-obfuscate emails written as "name (at) domain (dot) com".
- Use empty strings and empty arrays for anything not present.
- "people" is for named staff; include their title when stated.

Text:
` + pageText + `
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

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
