package lead

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// BusinessSeed is one business as supplied by the listing source. Name and
// Address are required; everything else is optional provenance the engine
// passes through untouched.
type BusinessSeed struct {
	Name        string
	Address     string
	City        string
	State       string
	Zip         string
	Country     string
	Phone       string
	Website     string
	Category    string
	Rating      string
	ReviewCount string
	PriceLevel  string
	MapsURL     string
	PlaceID     string

	// SearchQuery is the listing query that produced this seed (for example
	// the maps search the batch came from), carried through to the output.
	SearchQuery string
}

// LeadID returns the stable identity key for this seed: the first 12 hex
// characters of md5 over the normalized name and address. Two seeds that
// differ only in case or whitespace produce the same ID.
func (s BusinessSeed) LeadID() string {
	key := normalizeKey(s.Name) + "|" + normalizeKey(s.Address)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var (
	zipRe   = regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)
	stateRe = regexp.MustCompile(`\b([A-Z]{2})\b`)
)

// AddressParts holds the components recoverable from a one-line US address.
type AddressParts struct {
	City    string
	State   string
	Zip     string
	Country string
}

// ParseAddress splits a one-line address into components. Best effort for
// common US formats; missing parts stay empty.
func ParseAddress(address string) AddressParts {
	parts := AddressParts{Country: "USA"}
	if address == "" {
		return parts
	}

	if m := zipRe.FindStringSubmatch(address); m != nil {
		parts.Zip = m[1]
	}
	if m := stateRe.FindStringSubmatch(address); m != nil {
		parts.State = m[1]
	}
	if parts.State != "" {
		cityRe := regexp.MustCompile(`,\s*([^,]+),?\s*` + parts.State)
		if m := cityRe.FindStringSubmatch(address); m != nil {
			parts.City = strings.TrimSpace(m[1])
		}
	}
	return parts
}
