package scrape_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanahair/water-harvest/internal/scrape"
)

func TestLocateTable_ByHintTokens(t *testing.T) {
	doc, err := scrape.ParseDocument([]byte(`
		<html><body>
		<table><tr><td>navigation</td></tr></table>
		<table><tr><th>Bil.</th><th>ID Stesen</th></tr><tr><td>1</td><td>J01</td></tr></table>
		<table><tr><td>footer</td></tr></table>
		</body></html>`))
	require.NoError(t, err)

	table, err := scrape.LocateTable(doc, []string{"Bil.", "ID Stesen"})
	require.NoError(t, err)
	assert.Contains(t, table.Text(), "J01")
}

func TestLocateTable_AllHintsRequired(t *testing.T) {
	doc, err := scrape.ParseDocument([]byte(`
		<html><body>
		<table><tr><th>Bil.</th></tr></table>
		<table><tr><td>last table wins</td></tr></table>
		</body></html>`))
	require.NoError(t, err)

	// "Bil." alone is not enough; with no full match the last table is used.
	table, err := scrape.LocateTable(doc, []string{"Bil.", "ID Stesen"})
	require.NoError(t, err)
	assert.Contains(t, table.Text(), "last table wins")
}

func TestLocateTable_HintSpansNestedMarkup(t *testing.T) {
	doc, err := scrape.ParseDocument([]byte(`
		<html><body>
		<table><tr><th><b>ID</b>
		Stesen</th></tr></table>
		</body></html>`))
	require.NoError(t, err)

	// Whitespace runs collapse before matching, so markup and newlines
	// inside a header do not hide the token.
	table, err := scrape.LocateTable(doc, []string{"ID Stesen"})
	require.NoError(t, err)
	assert.NotNil(t, table)
}

func TestLocateTable_NoTables(t *testing.T) {
	doc, err := scrape.ParseDocument([]byte(`<html><body><p>maintenance page</p></body></html>`))
	require.NoError(t, err)

	_, err = scrape.LocateTable(doc, []string{"Bil."})
	require.Error(t, err)
	assert.True(t, errors.Is(err, scrape.ErrNoTables))
}
