package domain

import (
	"net/url"
	"strings"
)

// Layout tags the handful of known upstream table shapes. Each source declares
// one; the scrape stages branch on the tag instead of sniffing the document.
type Layout int

const (
	// LayoutSingleHeader: the first row (or <thead>) is the header.
	LayoutSingleHeader Layout = iota
	// LayoutDualHeader: two header rows; a fixed prefix and suffix of labels
	// from row 1 frame the variable-width date block taken from row 2.
	LayoutDualHeader
	// LayoutGroupedHead: single <thead> where a group label spans the date
	// columns; the label cell is skipped and the trailing pair reordered to
	// the end so the column list matches the dual-header shape.
	LayoutGroupedHead
	// LayoutJSONRows: not a table at all but a JSON document with a row array.
	LayoutJSONRows
)

// codePlaceholder marks where an entity's source code is substituted in a
// source's URL template or query parameters.
const codePlaceholder = "{code}"

// Source is one upstream endpoint capable of supplying an entity's table.
// Sources for a data domain are tried in slice order; the order is fixed
// configuration, not data.
type Source struct {
	ID  string
	URL string // template; {code} is replaced by the entity's source code

	// Params are query parameters sent with the request; a {code} value is
	// substituted per entity.
	Params map[string]string

	Layout Layout

	// HintTokens select the data table: the first table whose flattened text
	// contains all tokens wins, otherwise the last table in the document.
	HintTokens []string

	// PrefixWidth/SuffixWidth are the fixed label widths for LayoutDualHeader
	// and LayoutGroupedHead. Domain constants, never inferred.
	PrefixWidth int
	SuffixWidth int

	// RequireNumericIndex drops rows whose first cell is not a row number,
	// which the legacy pages use for footer and filter rows.
	RequireNumericIndex bool

	// StatusCells maps a cell position to a derived column name whose value
	// is the status label decoded from the cell's background color.
	StatusCells map[int]string

	// RowsKey locates the row array for LayoutJSONRows documents.
	RowsKey string
}

// RequestURL builds the concrete URL for an entity's source code.
func (s Source) RequestURL(code string) string {
	return strings.ReplaceAll(s.URL, codePlaceholder, url.PathEscape(code))
}

// QueryParams builds the query parameters for an entity's source code.
// Returns nil when the source sends none.
func (s Source) QueryParams(code string) url.Values {
	if len(s.Params) == 0 {
		return nil
	}
	v := url.Values{}
	for k, p := range s.Params {
		if p == codePlaceholder {
			p = code
		}
		v.Set(k, p)
	}
	return v
}

// DataDomain groups the ordered source chain for one kind of measurement with
// the constants the encoder and publisher need.
type DataDomain struct {
	Name        string
	DatasetName string // file stem for uploaded objects, e.g. "waterlevel_jps"

	// Sources in strict priority order. A later source is attempted only
	// after the one before it yielded zero records.
	Sources []Source

	// MinimalSchema is emitted as a header-only dataset when no state
	// produced records; downstream loaders depend on the header being there.
	MinimalSchema []string
}

// DomainByName returns the configured data domain, matching case-insensitively.
func DomainByName(name string) (DataDomain, bool) {
	for _, d := range dataDomains {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return DataDomain{}, false
}

// DomainNames lists the configured data domains in a stable order.
func DomainNames() []string {
	names := make([]string, len(dataDomains))
	for i, d := range dataDomains {
		names[i] = d.Name
	}
	return names
}

var dataDomains = []DataDomain{
	{
		Name:        "waterlevel",
		DatasetName: "waterlevel_jps",
		Sources: []Source{
			{
				ID:                  SourceInfobanjirPage,
				URL:                 "https://publicinfobanjir.water.gov.my/waterleveldata/{code}",
				Layout:              LayoutSingleHeader,
				HintTokens:          []string{"Bil.", "ID Stesen"},
				RequireNumericIndex: true,
			},
			{
				ID:                  SourceInfobanjirData,
				URL:                 "https://publicinfobanjir.water.gov.my/aras-air/data-paras-air/aras-air-data/",
				Params:              map[string]string{"state": codePlaceholder, "district": "ALL", "station": "ALL", "lang": "en"},
				Layout:              LayoutSingleHeader,
				HintTokens:          []string{"Station ID", "Water Level"},
				RequireNumericIndex: true,
			},
		},
		MinimalSchema: []string{
			"No.", "Station ID", "Station Name", "District", "Main Basin",
			"Sub River Basin", "Last Updated", "Water Level (m) (Graph)",
			"Threshold Normal", "Threshold Alert", "Threshold Warning",
			"Threshold Danger",
		},
	},
	{
		Name:        "rainfall",
		DatasetName: "rainfall_trend",
		Sources: []Source{
			{
				ID:          SourceRainfallPage,
				URL:         "https://publicinfobanjir.water.gov.my/rainfalldata/{code}",
				Layout:      LayoutDualHeader,
				HintTokens:  []string{"Bil.", "ID Stesen"},
				PrefixWidth: 5,
				SuffixWidth: 2,
			},
			{
				ID:          SourceRainfallSearch,
				URL:         "https://publicinfobanjir.water.gov.my/wp-content/themes/shapely/agency/searchresultrainfall.php",
				Params:      map[string]string{"state": codePlaceholder, "district": "ALL", "station": "ALL", "loginStatus": "0", "language": "1"},
				Layout:      LayoutGroupedHead,
				HintTokens:  []string{"Station ID", "Daily Rainfall"},
				PrefixWidth: 5,
				SuffixWidth: 2,
			},
		},
		MinimalSchema: []string{
			"Bil.", "ID Stesen", "Nama Stesen", "Daerah", "Kemaskini Terakhir",
			"Taburan Hujan dari Tengah Malam", "Jumlah 1 Jam",
		},
	},
	{
		Name:        "damlevel",
		DatasetName: "empangan",
		Sources: []Source{
			{
				ID:         SourceSpanWarroom,
				URL:        "https://warroom.span.gov.my/warroom/main/empangan/{code}",
				Layout:     LayoutSingleHeader,
				HintTokens: []string{"Empangan"},
				StatusCells: map[int]string{
					6: "Kategori Simpanan Semalam",
					7: "Kategori Simpanan Semasa",
				},
			},
		},
		MinimalSchema: []string{
			"Bil.", "Empangan", "Paras Simpanan Semalam", "Paras Simpanan Semasa",
		},
	},
	{
		Name:        "waterquality",
		DatasetName: "waterquality_myeqms",
		Sources: []Source{
			{
				ID:      SourceMyEQMS,
				URL:     "https://eqms.doe.gov.my/api3/publicportalrqims/crwqi",
				Params:  map[string]string{"stateid": codePlaceholder},
				Layout:  LayoutJSONRows,
				RowsKey: "crwqi",
			},
		},
		MinimalSchema: []string{"STATION_ID", "RIVER_NAME", "CRWQI", "CLASS"},
	},
}
