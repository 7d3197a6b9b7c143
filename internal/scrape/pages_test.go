package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatePages_RootPlusCatalog(t *testing.T) {
	got := CandidatePages("https://bluebottlecoffee.com/", 0)

	require.Len(t, got, 6, "root plus default catalog budget")
	assert.Equal(t, Candidate{URL: "https://bluebottlecoffee.com", Rank: 0}, got[0])
	assert.Equal(t, Candidate{URL: "https://bluebottlecoffee.com/contact", Rank: 1}, got[1])
	assert.Equal(t, Candidate{URL: "https://bluebottlecoffee.com/about", Rank: 2}, got[2])
}

func TestCandidatePages_CustomBudget(t *testing.T) {
	got := CandidatePages("bluebottlecoffee.com", 2)

	require.Len(t, got, 3)
	assert.Equal(t, "http://bluebottlecoffee.com", got[0].URL, "scheme defaults to http")
	assert.Equal(t, "http://bluebottlecoffee.com/contact", got[1].URL)
	assert.Equal(t, "http://bluebottlecoffee.com/about", got[2].URL)
}

func TestCandidatePages_NoWebsite(t *testing.T) {
	assert.Nil(t, CandidatePages("", 5))
	assert.Nil(t, CandidatePages("   ", 5))
}

func TestNormalizeWebsite(t *testing.T) {
	assert.Equal(t, "https://x.com", NormalizeWebsite("https://x.com/"))
	assert.Equal(t, "http://x.com", NormalizeWebsite(" x.com "))
	assert.Equal(t, "", NormalizeWebsite(""))
}
