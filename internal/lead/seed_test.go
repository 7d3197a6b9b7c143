package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadID_StableAcrossCaseAndWhitespace(t *testing.T) {
	a := BusinessSeed{Name: "Blue Bottle Coffee", Address: "300 Webster St, Oakland, CA 94607"}
	b := BusinessSeed{Name: "  blue   bottle  COFFEE ", Address: "300 webster st,  oakland, ca 94607"}

	assert.Equal(t, a.LeadID(), b.LeadID(), "normalized seeds should share an ID")
	assert.Len(t, a.LeadID(), 12)
}

func TestLeadID_DistinguishesBusinesses(t *testing.T) {
	a := BusinessSeed{Name: "Blue Bottle Coffee", Address: "300 Webster St"}
	b := BusinessSeed{Name: "Blue Bottle Coffee", Address: "1 Ferry Building"}
	c := BusinessSeed{Name: "Sightglass Coffee", Address: "300 Webster St"}

	assert.NotEqual(t, a.LeadID(), b.LeadID(), "different address, different ID")
	assert.NotEqual(t, a.LeadID(), c.LeadID(), "different name, different ID")
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    AddressParts
	}{
		{
			name:    "full US address",
			address: "300 Webster St, Oakland, CA 94607",
			want:    AddressParts{City: "Oakland", State: "CA", Zip: "94607", Country: "USA"},
		},
		{
			name:    "zip+4",
			address: "1 Main St, Springfield, IL 62704-1234",
			want:    AddressParts{City: "Springfield", State: "IL", Zip: "62704-1234", Country: "USA"},
		},
		{
			name:    "no zip",
			address: "42 Elm Ave, Portland, OR",
			want:    AddressParts{City: "Portland", State: "OR", Country: "USA"},
		},
		{
			name:    "empty",
			address: "",
			want:    AddressParts{Country: "USA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAddress(tt.address))
		})
	}
}
