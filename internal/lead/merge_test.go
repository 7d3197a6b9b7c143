package lead

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSeed = BusinessSeed{
	Name:        "Blue Bottle Coffee",
	Address:     "300 Webster St, Oakland, CA 94607",
	Phone:       "(510) 555-0100",
	Website:     "https://bluebottlecoffee.com",
	SearchQuery: "coffee shops in Oakland",
}

func testMeta() MergeMeta {
	return MergeMeta{
		ScrapedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PagesScraped:     2,
		SourcesAttempted: 2,
	}
}

func TestMerge_SeedFieldsAlwaysSurvive(t *testing.T) {
	meta := testMeta()
	meta.SourcesFailed = 2

	rec := Merge(testSeed, nil, meta)

	assert.Equal(t, testSeed.LeadID(), rec.LeadID)
	assert.Equal(t, "Blue Bottle Coffee", rec.BusinessName)
	assert.Equal(t, "300 Webster St, Oakland, CA 94607", rec.Address)
	assert.Equal(t, "Oakland", rec.City)
	assert.Equal(t, "CA", rec.State)
	assert.Equal(t, "94607", rec.ZipCode)
	assert.Equal(t, "USA", rec.Country)
	assert.Equal(t, "(510) 555-0100", rec.Phone)
	assert.Equal(t, "coffee shops in Oakland", rec.SearchQuery, "the originating listing query travels with the seed")
	assert.Equal(t, StatusError, rec.EnrichmentStatus, "all sources failed, nothing contributed")
}

func TestMerge_StatusRules(t *testing.T) {
	signal := []TaggedSignals{{
		Rank:    RankMainPage,
		Source:  "https://bluebottlecoffee.com",
		Signals: ContactSignals{Emails: []string{"hello@bluebottlecoffee.com"}},
	}}

	t.Run("any signal means success", func(t *testing.T) {
		meta := testMeta()
		meta.SourcesFailed = 1
		rec := Merge(testSeed, signal, meta)
		assert.Equal(t, StatusSuccess, rec.EnrichmentStatus)
	})

	t.Run("no signal with some sources alive means partial", func(t *testing.T) {
		meta := testMeta()
		meta.SourcesFailed = 1
		rec := Merge(testSeed, nil, meta)
		assert.Equal(t, StatusPartial, rec.EnrichmentStatus)
	})

	t.Run("nothing attempted means partial", func(t *testing.T) {
		rec := Merge(testSeed, nil, MergeMeta{ScrapedAt: time.Now()})
		assert.Equal(t, StatusPartial, rec.EnrichmentStatus)
	})
}

func TestMerge_EmailDedupKeepsFirstDisplayForm(t *testing.T) {
	sources := []TaggedSignals{
		{
			Rank:    RankSearch,
			Signals: ContactSignals{Emails: []string{"HELLO@bluebottlecoffee.com"}},
		},
		{
			Rank:    RankMainPage,
			Signals: ContactSignals{Emails: []string{"Hello@BlueBottleCoffee.com", "orders@bluebottlecoffee.com"}},
		},
	}

	rec := Merge(testSeed, sources, testMeta())

	// Rank 0 wins the display form even though the search source was listed first.
	assert.Equal(t, "Hello@BlueBottleCoffee.com, orders@bluebottlecoffee.com", rec.Emails)
}

func TestMerge_PhoneDedupAgainstSeedPhone(t *testing.T) {
	sources := []TaggedSignals{{
		Rank: RankMainPage,
		Signals: ContactSignals{Phones: []string{
			"+1 510 555 0100", // same as the seed phone
			"(510) 555-0199",  // new
			"510.555.0199",    // dup of the line above
			"555-0199",        // too short, dropped
		}},
	}}

	rec := Merge(testSeed, sources, testMeta())

	assert.Equal(t, "(510) 555-0199", rec.AdditionalPhones)
}

func TestMerge_SocialFirstPerPlatformByRank(t *testing.T) {
	sources := []TaggedSignals{
		{
			Rank: RankSocialSearch,
			Signals: ContactSignals{Social: map[string]string{
				PlatformFacebook:  "https://facebook.com/from-search",
				PlatformInstagram: "https://instagram.com/bluebottle",
			}},
		},
		{
			Rank: RankMainPage,
			Signals: ContactSignals{Social: map[string]string{
				PlatformFacebook: "https://facebook.com/bluebottle",
			}},
		},
	}

	rec := Merge(testSeed, sources, testMeta())

	assert.Equal(t, "https://facebook.com/bluebottle", rec.Facebook, "site-sourced profile outranks search")
	assert.Equal(t, "https://instagram.com/bluebottle", rec.Instagram)
	assert.Empty(t, rec.TikTok)
}

func TestMerge_OwnerAndTeamSplit(t *testing.T) {
	sources := []TaggedSignals{{
		Rank:   RankStructured,
		Source: "structured_extraction",
		Signals: ContactSignals{People: []Person{
			{Name: "Sam Chen", Title: "Barista", Email: "sam@bluebottlecoffee.com"},
			{Name: "Ana Ruiz", Title: "Founder & CEO", Email: "ana@bluebottlecoffee.com"},
			{Name: "Lee Park", Title: "Marketing"},
		}},
	}}

	rec := Merge(testSeed, sources, testMeta())

	assert.Equal(t, "Ana Ruiz", rec.OwnerName)
	assert.Equal(t, "Founder & CEO", rec.OwnerTitle)
	assert.Equal(t, "ana@bluebottlecoffee.com", rec.OwnerEmail)

	var team []Person
	require.NoError(t, json.Unmarshal([]byte(rec.TeamContacts), &team))
	require.Len(t, team, 1, "people without contact info stay out of the team list")
	assert.Equal(t, "Sam Chen", team[0].Name)
	assert.Equal(t, "structured_extraction", team[0].SourcePage)
}

func TestMerge_HoursAndOtherUnion(t *testing.T) {
	sources := []TaggedSignals{
		{
			Rank:    RankSearch,
			Signals: ContactSignals{Hours: "Mon-Fri 7am-5pm (search)", Other: []string{"whatsapp: https://wa.me/15105550100"}},
		},
		{
			Rank:    RankMainPage,
			Signals: ContactSignals{Hours: "Mon-Fri 7am-5pm", Other: []string{"whatsapp: https://wa.me/15105550100", "telegram: https://t.me/bluebottle"}},
		},
	}

	rec := Merge(testSeed, sources, testMeta())

	assert.Equal(t, "Mon-Fri 7am-5pm", rec.BusinessHours, "lowest rank hours wins")
	assert.Equal(t, "whatsapp: https://wa.me/15105550100, telegram: https://t.me/bluebottle", rec.AdditionalContactMethods)
}
