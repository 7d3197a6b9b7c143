package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadsmith/leadsmith/internal/lead"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err, "should open a fresh database")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(id, name string) lead.Record {
	return lead.Record{
		LeadID:           id,
		BusinessName:     name,
		Address:          "300 Webster St, Oakland, CA 94607",
		Emails:           "info@" + id + ".example.com",
		PagesScraped:     2,
		SearchEnriched:   true,
		EnrichmentStatus: lead.StatusSuccess,
	}
}

func TestStore_AppendAndKnownIDs(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.KnownIDs()
	require.NoError(t, err)
	assert.Empty(t, ids, "fresh database has no leads")

	added, err := s.Append("run-1", []lead.Record{
		testRecord("aaa111bbb222", "Alpha Roasters"),
		testRecord("ccc333ddd444", "Bravo Books"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	ids, err = s.KnownIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "aaa111bbb222")
	assert.Contains(t, ids, "ccc333ddd444")
}

func TestStore_AppendSkipsExistingIDs(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Append("run-1", []lead.Record{testRecord("aaa111bbb222", "Alpha Roasters")})
	require.NoError(t, err)

	// Re-appending the same lead must leave the stored record untouched.
	changed := testRecord("aaa111bbb222", "Alpha Roasters Renamed")
	added, err := s.Append("run-2", []lead.Record{
		changed,
		testRecord("ccc333ddd444", "Bravo Books"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added, "only the new lead counts")

	got, err := s.Get([]string{"aaa111bbb222"})
	require.NoError(t, err)
	require.Contains(t, got, "aaa111bbb222")
	assert.Equal(t, "Alpha Roasters", got["aaa111bbb222"].BusinessName)
}

func TestStore_GetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := testRecord("aaa111bbb222", "Alpha Roasters")
	_, err := s.Append("run-1", []lead.Record{want})
	require.NoError(t, err)

	got, err := s.Get([]string{"aaa111bbb222", "missing0000"})
	require.NoError(t, err)
	require.Len(t, got, 1, "unknown ids are simply absent")
	assert.Equal(t, want, got["aaa111bbb222"])
}

func TestStore_GetEmptyInput(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
