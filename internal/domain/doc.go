// Package domain models Malaysian environmental-monitoring data published by
// government portals.
//
// # Data Sources
//
// Each data domain (water level, rainfall, dam level, water quality) is served
// by one or more upstream endpoints ranked by priority:
//
//	water level:  publicinfobanjir.water.gov.my: legacy per-state HTML page,
//	              falling back to the modern query endpoint.
//	rainfall:     publicinfobanjir.water.gov.my: legacy page with a two-row
//	              table header, falling back to the search endpoint whose
//	              <thead> groups the daily columns under one label.
//	dam level:    warroom.span.gov.my (SPAN): single HTML page per state;
//	              storage categories are encoded as cell background colors.
//	water quality: eqms.doe.gov.my (MyEQMS): JSON API, rows under "crwqi".
//
// # Table Conventions
//
// The legacy pages render several layout/navigation tables before the data
// table, so the data table is found by hint tokens ("Bil.", "ID Stesen") with
// a last-table fallback. Row widths are inconsistent: a row is only accepted
// when its cell count matches the reconciled column count exactly, and every
// rejected row is counted so the drop rate is visible to operators.
//
// Dual-header tables interleave fixed business columns with a variable-width
// block of date columns:
//
//	row 1: Bil. | ID Stesen | Nama Stesen | Daerah | Kemaskini Terakhir | ... | Taburan Hujan | Jumlah 1 Jam
//	row 2:                    <one label per date column>
//
// The five leading and two trailing labels come from row 1, the middle block
// from row 2. The widths are fixed per source, not inferred.
//
// # Status Colors
//
// SPAN encodes reservoir storage categories as background colors:
//
//	green  → Paras Normal
//	orange → Paras Waspada
//	yellow → Paras Amaran
//	red    → Paras Kritikal
//
// An unrecognized or absent color yields no label, never an error.
//
// # Record Identity
//
// Every record carries state_code and state_name. These two columns are pinned
// to the front of the encoded dataset; the remaining column order is the order
// columns were first seen across successful states.
package domain
