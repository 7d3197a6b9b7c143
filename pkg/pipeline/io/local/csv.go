package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/leadsmith/leadsmith/internal/lead"
)

// ReadSeedsCSV reads business seeds from a CSV file. "name" and "address"
// are required columns and must be non-empty on every row since they form
// the lead identity; the rest are optional and map onto the seed fields by
// header name. Unknown columns are ignored.
func ReadSeedsCSV(r io.Reader) ([]lead.BusinessSeed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"name", "address"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var seeds []lead.BusinessSeed
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row++

		seed := lead.BusinessSeed{
			Name:        field(rec, "name"),
			Address:     field(rec, "address"),
			City:        field(rec, "city"),
			State:       field(rec, "state"),
			Zip:         field(rec, "zip"),
			Country:     field(rec, "country"),
			Phone:       field(rec, "phone"),
			Website:     field(rec, "website"),
			Category:    field(rec, "category"),
			Rating:      field(rec, "rating"),
			ReviewCount: field(rec, "review_count"),
			PriceLevel:  field(rec, "price_level"),
			MapsURL:     field(rec, "google_maps_url"),
			PlaceID:     field(rec, "place_id"),
			SearchQuery: field(rec, "search_query"),
		}
		if seed.Name == "" {
			return nil, fmt.Errorf("row %d: empty name", row)
		}
		if seed.Address == "" {
			return nil, fmt.Errorf("row %d: empty address", row)
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}
