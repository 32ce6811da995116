package pipeline_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/observability"
	"github.com/tanahair/water-harvest/internal/pipeline"
	"github.com/tanahair/water-harvest/internal/scrape"
)

// --- mocks ---

// mockFetcher routes fetches by URL substring and counts calls per route.
type mockFetcher struct {
	routes map[string]fetchResponse
	calls  map[string]int
}

type fetchResponse struct {
	body []byte
	err  error
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{routes: map[string]fetchResponse{}, calls: map[string]int{}}
}

func (m *mockFetcher) route(substr string, body string, err error) {
	m.routes[substr] = fetchResponse{body: []byte(body), err: err}
}

func (m *mockFetcher) Fetch(_ context.Context, rawURL string, _ url.Values) ([]byte, error) {
	for substr, resp := range m.routes {
		if strings.Contains(rawURL, substr) {
			m.calls[substr]++
			return resp.body, resp.err
		}
	}
	panic("unexpected fetch: " + rawURL)
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testEntity(t *testing.T, key string) domain.Entity {
	t.Helper()
	ent, ok := domain.NewRegistry().Resolve(key)
	require.True(t, ok)
	return ent
}

func testDomain(t *testing.T, name string) domain.DataDomain {
	t.Helper()
	dom, ok := domain.DomainByName(name)
	require.True(t, ok)
	return dom
}

const waterLevelPage = `<html><body><table>
	<tr><th>Bil.</th><th>ID Stesen</th><th>Nama Stesen</th></tr>
	<tr><td>1</td><td>J01</td><td>Sungai Segamat</td></tr>
</table></body></html>`

const waterLevelData = `<html><body><table>
	<tr><th>No.</th><th>Station ID</th><th>Water Level</th></tr>
	<tr><td>1</td><td>J01</td><td>2.13</td></tr>
	<tr><td>2</td><td>J02</td><td>1.75</td></tr>
</table></body></html>`

const emptyTablePage = `<html><body><table>
	<tr><th>Bil.</th><th>ID Stesen</th></tr>
	<tr><td>Tiada rekod dijumpai</td></tr>
</table></body></html>`

// --- tests ---

func TestHarvester_FirstSourceWins(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.route("waterleveldata", waterLevelPage, nil)
	fetcher.route("aras-air", waterLevelData, nil)

	h := pipeline.NewHarvester(fetcher, slog.Default(), newTestMetrics())
	res := h.HarvestEntity(context.Background(), testDomain(t, "waterlevel"), testEntity(t, "JHR"))

	require.True(t, res.Succeeded())
	assert.Equal(t, domain.SourceInfobanjirPage, res.SourceUsed)
	assert.Len(t, res.Records, 1)

	// A winning first source means the fallback is never touched.
	assert.Equal(t, 1, fetcher.calls["waterleveldata"])
	assert.Zero(t, fetcher.calls["aras-air"])
}

func TestHarvester_FallsBackOnPermanentError(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.route("waterleveldata", "", &scrape.FetchError{
		Kind: domain.KindPermanentHTTP, Status: http.StatusNotFound, Attempts: 1,
	})
	fetcher.route("aras-air", waterLevelData, nil)

	h := pipeline.NewHarvester(fetcher, slog.Default(), newTestMetrics())
	res := h.HarvestEntity(context.Background(), testDomain(t, "waterlevel"), testEntity(t, "KDH"))

	require.True(t, res.Succeeded())
	assert.Equal(t, domain.SourceInfobanjirData, res.SourceUsed)
	assert.Len(t, res.Records, 2)

	// Both attempts are on the record: the 404 and the success.
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, domain.SourceInfobanjirPage, res.Attempts[0].SourceID)
	require.NotNil(t, res.Attempts[0].Err)
	assert.Equal(t, domain.KindPermanentHTTP, res.Attempts[0].Err.Kind)
	assert.Nil(t, res.Attempts[1].Err)
}

func TestHarvester_FallsBackOnEmptyTable(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.route("waterleveldata", emptyTablePage, nil)
	fetcher.route("aras-air", waterLevelData, nil)

	h := pipeline.NewHarvester(fetcher, slog.Default(), newTestMetrics())
	res := h.HarvestEntity(context.Background(), testDomain(t, "waterlevel"), testEntity(t, "JHR"))

	require.True(t, res.Succeeded())
	assert.Equal(t, domain.SourceInfobanjirData, res.SourceUsed)
}

func TestHarvester_AllSourcesExhausted(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.route("waterleveldata", emptyTablePage, nil)
	fetcher.route("aras-air", emptyTablePage, nil)

	h := pipeline.NewHarvester(fetcher, slog.Default(), newTestMetrics())
	res := h.HarvestEntity(context.Background(), testDomain(t, "waterlevel"), testEntity(t, "PLS"))

	assert.False(t, res.Succeeded())
	assert.Empty(t, res.SourceUsed)
	require.Len(t, res.Attempts, 2)

	reason := res.FailureReason()
	assert.Contains(t, reason, domain.SourceInfobanjirPage)
	assert.Contains(t, reason, domain.SourceInfobanjirData)
	assert.Contains(t, reason, string(domain.KindEmptyResult))
}

func TestHarvester_SkipsUncoveredSource(t *testing.T) {
	// Sabah has no SPAN dam page; the only damlevel source cannot apply.
	fetcher := newMockFetcher()

	h := pipeline.NewHarvester(fetcher, slog.Default(), newTestMetrics())
	res := h.HarvestEntity(context.Background(), testDomain(t, "damlevel"), testEntity(t, "SAB"))

	assert.False(t, res.Succeeded())
	require.Len(t, res.Attempts, 1)
	require.NotNil(t, res.Attempts[0].Err)
	assert.Equal(t, domain.KindNotConfigured, res.Attempts[0].Err.Kind)
	assert.Empty(t, fetcher.calls, "an uncovered source must not be fetched")
}

func TestHarvester_AccumulatesDroppedRows(t *testing.T) {
	page := `<html><body><table>
		<tr><th>Bil.</th><th>ID Stesen</th><th>Nama Stesen</th></tr>
		<tr><td>1</td><td>J01</td><td>Sungai Segamat</td></tr>
		<tr><td>broken row</td></tr>
	</table></body></html>`

	fetcher := newMockFetcher()
	fetcher.route("waterleveldata", page, nil)
	fetcher.route("aras-air", waterLevelData, nil)

	h := pipeline.NewHarvester(fetcher, slog.Default(), newTestMetrics())
	res := h.HarvestEntity(context.Background(), testDomain(t, "waterlevel"), testEntity(t, "JHR"))

	require.True(t, res.Succeeded())
	assert.Equal(t, 1, res.DroppedRows)
}
