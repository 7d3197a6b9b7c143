package scrape

import "strings"

// contactPathCatalog is the fixed, priority-tiered list of sub-paths likely to
// carry contact or team information. High tier first, then medium, then lower.
// There is no existence probing: a candidate that 404s is just a failed fetch.
var contactPathCatalog = []string{
	// High.
	"contact", "about", "team", "contact-us", "about-us", "our-team",
	// Medium.
	"staff", "people", "meet-the-team", "leadership", "management",
	"founders", "who-we-are",
	// Lower.
	"company", "meet-us", "our-story", "the-team", "employees",
	"directory", "locations", "offices",
}

// DefaultMaxContactPages bounds how many catalog paths are tried per site.
const DefaultMaxContactPages = 5

// Candidate is one URL to fetch, tagged with its merge-priority rank. The
// site root is rank 0; catalog paths follow in priority order.
type Candidate struct {
	URL  string
	Rank int
}

// CandidatePages returns the site root plus up to maxPaths catalog paths, in
// priority order. An empty website yields nil and the caller short-circuits
// to search-only enrichment.
func CandidatePages(website string, maxPaths int) []Candidate {
	root := NormalizeWebsite(website)
	if root == "" {
		return nil
	}
	if maxPaths <= 0 || maxPaths > len(contactPathCatalog) {
		maxPaths = DefaultMaxContactPages
	}

	out := make([]Candidate, 0, maxPaths+1)
	out = append(out, Candidate{URL: root, Rank: 0})
	for i := 0; i < maxPaths; i++ {
		out = append(out, Candidate{
			URL:  root + "/" + contactPathCatalog[i],
			Rank: i + 1,
		})
	}
	return out
}

// NormalizeWebsite trims a seed website value to a fetchable root URL,
// defaulting the scheme to http when the listing source omitted it.
func NormalizeWebsite(website string) string {
	w := strings.TrimSpace(website)
	if w == "" {
		return ""
	}
	if !strings.HasPrefix(w, "http://") && !strings.HasPrefix(w, "https://") {
		w = "http://" + w
	}
	return strings.TrimRight(w, "/")
}
