package scrape_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/scrape"
)

func TestExtract_WaterLevelPage(t *testing.T) {
	withFixedClock(t, time.Date(2026, 5, 1, 4, 0, 0, 0, time.UTC))
	src := domainSource(t, "waterlevel", 0)

	body := []byte(`<html><body>
		<table><tr><td>menu</td></tr></table>
		<table>
			<tr><th>Bil.</th><th>ID Stesen</th><th>Nama Stesen</th></tr>
			<tr><td>1</td><td>J01</td><td>Sungai Segamat</td></tr>
			<tr><td>Jumlah</td><td>-</td><td>-</td></tr>
			<tr><td>2</td><td>J02</td><td>Sungai Muar</td></tr>
		</table>
	</body></html>`)

	records, dropped, err := scrape.Extract(body, src, johor(t))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Zero(t, dropped)

	station, _ := records[0].Get("ID Stesen")
	assert.Equal(t, "J01", station)
	code, _ := records[1].Get("state_code")
	assert.Equal(t, "JHR", code)
}

func TestExtract_NoTables(t *testing.T) {
	src := domainSource(t, "waterlevel", 0)

	_, _, err := scrape.Extract([]byte(`<html><body><p>ralat</p></body></html>`), src, johor(t))
	require.Error(t, err)
	assert.Equal(t, domain.KindTableNotFound, domain.KindOf(err))

	var se *domain.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.StageLocate, se.Stage)
}

func TestExtract_TablePresentButNoRows(t *testing.T) {
	src := domainSource(t, "waterlevel", 0)

	// Header plus footer rows only: the table exists but yields nothing.
	body := []byte(`<html><body><table>
		<tr><th>Bil.</th><th>ID Stesen</th></tr>
		<tr><td>Tiada rekod dijumpai</td></tr>
	</table></body></html>`)

	_, dropped, err := scrape.Extract(body, src, johor(t))
	require.Error(t, err)
	assert.Equal(t, domain.KindEmptyResult, domain.KindOf(err))
	assert.Equal(t, 1, dropped, "mismatched rows stay counted even when extraction fails")
}

func TestExtract_JSONRows(t *testing.T) {
	withFixedClock(t, time.Date(2026, 5, 1, 4, 0, 0, 0, time.UTC))
	src := domainSource(t, "waterquality", 0)

	body := []byte(`{"crwqi":[
		{"STATION_ID":"1PP01","RIVER_NAME":"Sungai Perai","CRWQI":78.4,"CLASS":"II","NOTE":null},
		{"STATION_ID":"1PP02","RIVER_NAME":"Sungai Juru","CRWQI":55,"CLASS":"III","NOTE":true}
	]}`)

	records, dropped, err := scrape.Extract(body, src, johor(t))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Zero(t, dropped)

	// Object keys come back sorted, framed by the metadata columns.
	assert.Equal(t, []string{
		"state_code", "state_name",
		"CLASS", "CRWQI", "NOTE", "RIVER_NAME", "STATION_ID",
		"scraped_at",
	}, records[0].Columns())

	crwqi, _ := records[0].Get("CRWQI")
	assert.Equal(t, "78.4", crwqi)
	note, _ := records[0].Get("NOTE")
	assert.Empty(t, note, "JSON null stringifies to empty")
	whole, _ := records[1].Get("CRWQI")
	assert.Equal(t, "55", whole, "whole numbers carry no decimal point")
	boolNote, _ := records[1].Get("NOTE")
	assert.Equal(t, "true", boolNote)
}

func TestExtract_JSONRows_APIError(t *testing.T) {
	src := domainSource(t, "waterquality", 0)

	_, _, err := scrape.Extract([]byte(`{"error":"invalid state id"}`), src, johor(t))
	require.Error(t, err)
	assert.Equal(t, domain.KindPermanentHTTP, domain.KindOf(err))
}

func TestExtract_JSONRows_EmptyArray(t *testing.T) {
	src := domainSource(t, "waterquality", 0)

	_, _, err := scrape.Extract([]byte(`{"crwqi":[]}`), src, johor(t))
	require.Error(t, err)
	assert.Equal(t, domain.KindEmptyResult, domain.KindOf(err))
}

func TestExtract_JSONRows_Malformed(t *testing.T) {
	src := domainSource(t, "waterquality", 0)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>login page</html>`},
		{"wrong shape", `{"rows":[{"a":1}]}`},
		{"row array is scalar", `{"crwqi":"none"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := scrape.Extract([]byte(tt.body), src, johor(t))
			require.Error(t, err)
			assert.Equal(t, domain.KindMalformedTable, domain.KindOf(err))
		})
	}
}
