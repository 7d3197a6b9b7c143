package lead

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// MergeMeta carries the per-business bookkeeping the orchestrator gathered
// while running the sources.
type MergeMeta struct {
	ScrapedAt time.Time

	// PagesScraped counts attempted page fetches, successful or not.
	PagesScraped int

	// SearchEnriched is true when any search call contributed at least one
	// signal.
	SearchEnriched bool

	// SourcesAttempted / SourcesFailed drive the status computation: a
	// source is a page fetch, a search call, or a structured-extraction
	// call.
	SourcesAttempted int
	SourcesFailed    int
}

var ownerTitleKeywords = []string{
	"owner", "founder", "co-founder", "ceo", "president", "chief executive",
}

// Merge reduces the tagged signals from every source into one Record. Sets
// union across sources; single-valued fields take the first non-empty value
// in rank order. The seed's own fields are always present, so a business is
// never dropped no matter how enrichment went.
func Merge(seed BusinessSeed, sources []TaggedSignals, meta MergeMeta) Record {
	ordered := make([]TaggedSignals, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	var (
		emails     []string
		emailSeen  = map[string]struct{}{}
		phones     []string
		phoneSeen  = map[string]struct{}{}
		social     = map[string]string{}
		hours      string
		people     []Person
		other      []string
		otherSeen  = map[string]struct{}{}
		contribute bool
	)

	// The seed's maps-sourced phone never re-appears as an additional phone.
	if key := phoneKey(seed.Phone); key != "" {
		phoneSeen[key] = struct{}{}
	}

	for _, src := range ordered {
		sig := src.Signals
		if !sig.Empty() {
			contribute = true
		}
		for _, e := range sig.Emails {
			k := strings.ToLower(strings.TrimSpace(e))
			if k == "" {
				continue
			}
			if _, ok := emailSeen[k]; ok {
				continue
			}
			emailSeen[k] = struct{}{}
			emails = append(emails, strings.TrimSpace(e))
		}
		for _, p := range sig.Phones {
			k := phoneKey(p)
			if k == "" {
				continue
			}
			if _, ok := phoneSeen[k]; ok {
				continue
			}
			phoneSeen[k] = struct{}{}
			phones = append(phones, strings.TrimSpace(p))
		}
		for platform, u := range sig.Social {
			if u == "" {
				continue
			}
			if _, ok := social[platform]; !ok {
				social[platform] = u
			}
		}
		if hours == "" && sig.Hours != "" {
			hours = sig.Hours
		}
		for _, p := range sig.People {
			if p.SourcePage == "" {
				p.SourcePage = src.Source
			}
			people = append(people, p)
		}
		for _, o := range sig.Other {
			o = strings.TrimSpace(o)
			if o == "" {
				continue
			}
			if _, ok := otherSeen[o]; ok {
				continue
			}
			otherSeen[o] = struct{}{}
			other = append(other, o)
		}
	}

	owner, team := splitOwner(people)

	parts := ParseAddress(seed.Address)
	country := seed.Country
	if country == "" {
		country = parts.Country
	}

	rec := Record{
		LeadID:      seed.LeadID(),
		ScrapedAt:   meta.ScrapedAt.Format(time.RFC3339),
		SearchQuery: seed.SearchQuery,

		BusinessName: seed.Name,
		Category:     seed.Category,
		Address:      seed.Address,
		City:         firstNonEmpty(seed.City, parts.City),
		State:        firstNonEmpty(seed.State, parts.State),
		ZipCode:      firstNonEmpty(seed.Zip, parts.Zip),
		Country:      country,
		Phone:        seed.Phone,
		Website:      seed.Website,
		MapsURL:      seed.MapsURL,
		PlaceID:      seed.PlaceID,

		Rating:      seed.Rating,
		ReviewCount: seed.ReviewCount,
		PriceLevel:  seed.PriceLevel,

		Emails:           strings.Join(emails, ", "),
		AdditionalPhones: strings.Join(phones, ", "),
		BusinessHours:    hours,

		Facebook:  social[PlatformFacebook],
		Twitter:   social[PlatformTwitter],
		LinkedIn:  social[PlatformLinkedIn],
		Instagram: social[PlatformInstagram],
		YouTube:   social[PlatformYouTube],
		TikTok:    social[PlatformTikTok],

		OwnerName:     owner.Name,
		OwnerTitle:    owner.Title,
		OwnerEmail:    owner.Email,
		OwnerPhone:    owner.Phone,
		OwnerLinkedIn: owner.LinkedIn,

		TeamContacts:             marshalTeam(team),
		AdditionalContactMethods: strings.Join(other, ", "),

		PagesScraped:     meta.PagesScraped,
		SearchEnriched:   meta.SearchEnriched,
		EnrichmentStatus: computeStatus(contribute, meta),
	}
	return rec
}

func computeStatus(contributed bool, meta MergeMeta) string {
	if contributed {
		return StatusSuccess
	}
	if meta.SourcesAttempted > 0 && meta.SourcesFailed >= meta.SourcesAttempted {
		return StatusError
	}
	return StatusPartial
}

// splitOwner picks the best-confidence owner candidate and returns everyone
// else who carries contact info. Sources arrive rank-ordered, so the first
// title match is the highest-priority one.
func splitOwner(people []Person) (Person, []Person) {
	ownerIdx := -1
	for i, p := range people {
		title := strings.ToLower(p.Title)
		for _, kw := range ownerTitleKeywords {
			if strings.Contains(title, kw) {
				ownerIdx = i
				break
			}
		}
		if ownerIdx >= 0 {
			break
		}
	}

	var owner Person
	var team []Person
	seen := map[string]struct{}{}
	for i, p := range people {
		if i == ownerIdx {
			owner = p
			continue
		}
		if p.Name == "" || !p.HasContactInfo() {
			continue
		}
		k := strings.ToLower(p.Name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		team = append(team, p)
	}
	return owner, team
}

func marshalTeam(team []Person) string {
	if len(team) == 0 {
		return ""
	}
	b, err := json.Marshal(team)
	if err != nil {
		// Cannot happen for this struct; keep output stable.
		return ""
	}
	return string(b)
}

// phoneKey normalizes a phone number to digits for dedup. A leading country
// code 1 on an 11-digit number is dropped so "+1 (512) 555-0100" and
// "512-555-0100" collapse to the same key. Numbers with fewer than 10 digits
// are rejected.
func phoneKey(p string) string {
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) < 10 || len(d) > 15 {
		return ""
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
