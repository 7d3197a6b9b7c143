package leadapi_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadsmith/leadsmith/internal/lead"
	"github.com/leadsmith/leadsmith/internal/mockleadapi"
	"github.com/leadsmith/leadsmith/pkg/leadapi"
)

func newTestSink(t *testing.T, token string) (*mockleadapi.Server, *leadapi.Client) {
	t.Helper()

	sink := mockleadapi.New("")
	sink.RequireBearerToken(token)
	srv := httptest.NewServer(sink.Handler())
	t.Cleanup(srv.Close)

	client, err := leadapi.NewClient(srv.URL, token, "")
	require.NoError(t, err)
	return sink, client
}

func leadsCSV(t *testing.T, records ...lead.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, lead.WriteCSV(&buf, records))
	return buf.Bytes()
}

func sinkRecord(id, name string) lead.Record {
	return lead.Record{
		LeadID:           id,
		BusinessName:     name,
		Address:          "300 Webster St, Oakland, CA 94607",
		Emails:           "info@" + id + ".example.com",
		EnrichmentStatus: lead.StatusSuccess,
	}
}

func TestClient_KnownLeadIDs(t *testing.T) {
	_, client := newTestSink(t, "sink-token")

	ids, err := client.KnownLeadIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = client.AppendLeadsCSV(context.Background(), leadsCSV(t,
		sinkRecord("aaa111bbb222", "Alpha Roasters"),
		sinkRecord("ccc333ddd444", "Bravo Books"),
	))
	require.NoError(t, err)

	ids, err = client.KnownLeadIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa111bbb222", "ccc333ddd444"}, ids)
}

func TestClient_AppendSkipsKnownIDs(t *testing.T) {
	sink, client := newTestSink(t, "sink-token")

	added, err := client.AppendLeadsCSV(context.Background(), leadsCSV(t,
		sinkRecord("aaa111bbb222", "Alpha Roasters"),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = client.AppendLeadsCSV(context.Background(), leadsCSV(t,
		sinkRecord("aaa111bbb222", "Alpha Roasters"),
		sinkRecord("ccc333ddd444", "Bravo Books"),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, added, "already-known lead must not count")

	records := sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Alpha Roasters", records[0].BusinessName)
	assert.Equal(t, "Bravo Books", records[1].BusinessName)
}

func TestClient_ExportRoundTrip(t *testing.T) {
	_, client := newTestSink(t, "sink-token")

	want := sinkRecord("aaa111bbb222", "Alpha Roasters")
	_, err := client.AppendLeadsCSV(context.Background(), leadsCSV(t, want))
	require.NoError(t, err)

	body, err := client.ExportCSV(context.Background())
	require.NoError(t, err)

	got, err := lead.ReadCSV(bytes.NewReader(body))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestClient_WrongTokenIsHTTPError(t *testing.T) {
	sink := mockleadapi.New("")
	sink.RequireBearerToken("sink-token")
	srv := httptest.NewServer(sink.Handler())
	defer srv.Close()

	client, err := leadapi.NewClient(srv.URL, "wrong-token", "")
	require.NoError(t, err)

	_, err = client.KnownLeadIDs(context.Background())
	var httpErr *leadapi.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", httpErr.Code)
}

func TestClient_InvalidCSVRejected(t *testing.T) {
	_, client := newTestSink(t, "sink-token")

	_, err := client.AppendLeadsCSV(context.Background(), []byte("not,a,lead\nheader,at,all\n"))
	var httpErr *leadapi.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "INVALID_CSV", httpErr.Code)
}

func TestNewClient_RejectsEmptyBaseURL(t *testing.T) {
	_, err := leadapi.NewClient("", "token", "")
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*leadapi.HTTPError)))
}
