package lead

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header returns the stable CSV header for Record. Column names and order are
// a wire contract with downstream consumers; do not reorder.
func Header() []string {
	return []string{
		"lead_id",
		"scraped_at",
		"search_query",
		"business_name",
		"category",
		"address",
		"city",
		"state",
		"zip_code",
		"country",
		"phone",
		"website",
		"google_maps_url",
		"place_id",
		"rating",
		"review_count",
		"price_level",
		"emails",
		"additional_phones",
		"business_hours",
		"facebook",
		"twitter",
		"linkedin",
		"instagram",
		"youtube",
		"tiktok",
		"owner_name",
		"owner_title",
		"owner_email",
		"owner_phone",
		"owner_linkedin",
		"team_contacts",
		"additional_contact_methods",
		"pages_scraped",
		"search_enriched",
		"enrichment_status",
	}
}

func (r Record) row() []string {
	searchEnriched := "no"
	if r.SearchEnriched {
		searchEnriched = "yes"
	}
	return []string{
		r.LeadID,
		r.ScrapedAt,
		r.SearchQuery,
		r.BusinessName,
		r.Category,
		r.Address,
		r.City,
		r.State,
		r.ZipCode,
		r.Country,
		r.Phone,
		r.Website,
		r.MapsURL,
		r.PlaceID,
		r.Rating,
		r.ReviewCount,
		r.PriceLevel,
		r.Emails,
		r.AdditionalPhones,
		r.BusinessHours,
		r.Facebook,
		r.Twitter,
		r.LinkedIn,
		r.Instagram,
		r.YouTube,
		r.TikTok,
		r.OwnerName,
		r.OwnerTitle,
		r.OwnerEmail,
		r.OwnerPhone,
		r.OwnerLinkedIn,
		r.TeamContacts,
		r.AdditionalContactMethods,
		strconv.Itoa(r.PagesScraped),
		searchEnriched,
		r.EnrichmentStatus,
	}
}

// WriteCSV writes records as a CSV with the stable Header() ordering.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads records from a CSV using the stable Header() contract.
//
// Extra columns are ignored. Required columns from Header() must exist.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range Header() {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var records []Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		get := func(col string) string {
			i := index[col]
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		pages, _ := strconv.Atoi(get("pages_scraped"))

		records = append(records, Record{
			LeadID:                   get("lead_id"),
			ScrapedAt:                get("scraped_at"),
			SearchQuery:              get("search_query"),
			BusinessName:             get("business_name"),
			Category:                 get("category"),
			Address:                  get("address"),
			City:                     get("city"),
			State:                    get("state"),
			ZipCode:                  get("zip_code"),
			Country:                  get("country"),
			Phone:                    get("phone"),
			Website:                  get("website"),
			MapsURL:                  get("google_maps_url"),
			PlaceID:                  get("place_id"),
			Rating:                   get("rating"),
			ReviewCount:              get("review_count"),
			PriceLevel:               get("price_level"),
			Emails:                   get("emails"),
			AdditionalPhones:         get("additional_phones"),
			BusinessHours:            get("business_hours"),
			Facebook:                 get("facebook"),
			Twitter:                  get("twitter"),
			LinkedIn:                 get("linkedin"),
			Instagram:                get("instagram"),
			YouTube:                  get("youtube"),
			TikTok:                   get("tiktok"),
			OwnerName:                get("owner_name"),
			OwnerTitle:               get("owner_title"),
			OwnerEmail:               get("owner_email"),
			OwnerPhone:               get("owner_phone"),
			OwnerLinkedIn:            get("owner_linkedin"),
			TeamContacts:             get("team_contacts"),
			AdditionalContactMethods: get("additional_contact_methods"),
			PagesScraped:             pages,
			SearchEnriched:           strings.EqualFold(strings.TrimSpace(get("search_enriched")), "yes"),
			EnrichmentStatus:         get("enrichment_status"),
		})
	}
}
