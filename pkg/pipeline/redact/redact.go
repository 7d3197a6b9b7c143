package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens). Tokens show up in
	// logs via downstream libraries and HTTP error messages.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|leadapi[_-]?token)\b\s*[:=]\s*[^\s"']+`)

	// API keys passed as query parameters, e.g. ?key=AIza...
	keyParamRe = regexp.MustCompile(`(?i)([?&](?:key|token|apikey)=)[^\s&"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
//
// This is intentionally conservative: it should be safe to call on any
// message, including user-provided inputs and upstream error strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = keyParamRe.ReplaceAllString(out, "${1}<redacted>")
	return strings.TrimSpace(out)
}
