package lead

// Social platforms tracked in the output schema.
const (
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
)

// Platforms lists all tracked social platforms in output-column order.
var Platforms = []string{
	PlatformFacebook,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformInstagram,
	PlatformYouTube,
	PlatformTikTok,
}

// Person is one named contact discovered on a page or in search results.
type Person struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	LinkedIn   string `json:"linkedin,omitempty"`
	SourcePage string `json:"source_page,omitempty"`
}

// HasContactInfo reports whether the person carries anything actionable
// beyond a bare name.
func (p Person) HasContactInfo() bool {
	return p.Email != "" || p.Phone != "" || p.LinkedIn != ""
}

// ContactSignals accumulates the contact fields discovered from one source
// (a page, a search call, or the structured extractor). Dedup and conflict
// resolution happen in Merge, not here.
type ContactSignals struct {
	Emails []string
	Phones []string
	Social map[string]string
	Hours  string
	People []Person

	// Other holds free-form contact methods (contact-form URLs and the
	// like) that don't fit a dedicated column.
	Other []string
}

// Empty reports whether the source contributed nothing.
func (c ContactSignals) Empty() bool {
	return len(c.Emails) == 0 &&
		len(c.Phones) == 0 &&
		len(c.Social) == 0 &&
		c.Hours == "" &&
		len(c.People) == 0 &&
		len(c.Other) == 0
}

// Source ranks for merge priority. Lower rank wins single-valued conflicts.
// Contact pages occupy 1..9 in candidate order.
const (
	RankMainPage     = 0
	RankStructured   = 10
	RankSearch       = 20
	RankSocialSearch = 30
)

// TaggedSignals pairs signals with the priority rank and label of the source
// that produced them. Merge resolves conflicts by rank, never by arrival
// order.
type TaggedSignals struct {
	Rank    int
	Source  string
	Signals ContactSignals
}
