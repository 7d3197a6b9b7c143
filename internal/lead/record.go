package lead

// Enrichment status values. "success" means at least one enrichment source
// contributed a contact field; "partial" means the seed is usable but
// enrichment came up short; "error" means every attempted enrichment source
// failed and nothing beyond the seed's own fields exists.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// Record is the stable output schema: one fully merged lead. Everything is a
// string except the two counters, keeping the CSV contract simple and
// byte-stable (empty string means "not found", columns never disappear).
type Record struct {
	LeadID      string
	ScrapedAt   string
	SearchQuery string

	// Business basics from the listing source.
	BusinessName string
	Category     string
	Address      string
	City         string
	State        string
	ZipCode      string
	Country      string
	Phone        string
	Website      string
	MapsURL      string
	PlaceID      string

	// Ratings and reviews.
	Rating      string
	ReviewCount string
	PriceLevel  string

	// Extracted contact info.
	Emails           string
	AdditionalPhones string
	BusinessHours    string

	// Social media.
	Facebook  string
	Twitter   string
	LinkedIn  string
	Instagram string
	YouTube   string
	TikTok    string

	// Owner / key person.
	OwnerName     string
	OwnerTitle    string
	OwnerEmail    string
	OwnerPhone    string
	OwnerLinkedIn string

	// TeamContacts is a JSON array of Person, empty string when none.
	TeamContacts string

	AdditionalContactMethods string

	PagesScraped     int
	SearchEnriched   bool
	EnrichmentStatus string
}
