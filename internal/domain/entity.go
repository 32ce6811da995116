package domain

import "strings"

// Source identifiers, used as keys into Entity.Codes.
const (
	SourceInfobanjirPage = "infobanjir-page" // legacy waterleveldata HTML page
	SourceInfobanjirData = "infobanjir-data" // modern aras-air query endpoint
	SourceRainfallPage   = "rainfall-page"   // legacy rainfalldata HTML page
	SourceRainfallSearch = "rainfall-search" // searchresultrainfall.php endpoint
	SourceSpanWarroom    = "span-warroom"    // SPAN dam/reservoir page
	SourceMyEQMS         = "myeqms"          // MyEQMS CRWQI JSON API
)

// Entity is one state or federal territory a harvesting pass runs for.
// Each upstream addresses states differently (full name in the URL path, a
// three-letter JPS code, a numeric id), so the per-source request identifier
// lives in Codes keyed by source id. A missing key means the source does not
// cover that state.
type Entity struct {
	Code  string // canonical short code, e.g. "JHR"
	Name  string // canonical display name, e.g. "Johor"
	Codes map[string]string
}

// SourceCode returns the request identifier this entity uses with the given
// source, or false when the source does not cover the entity.
func (e Entity) SourceCode(sourceID string) (string, bool) {
	c, ok := e.Codes[sourceID]
	return c, ok
}

// Registry is the immutable set of known entities, built once at start.
type Registry struct {
	entities []Entity
	byCode   map[string]Entity
	byName   map[string]Entity
}

// NewRegistry builds the registry of the 16 Malaysian states and federal
// territories with their per-source identifiers.
func NewRegistry() *Registry {
	r := &Registry{
		byCode: make(map[string]Entity),
		byName: make(map[string]Entity),
	}
	for _, e := range stateTable() {
		r.entities = append(r.entities, e)
		r.byCode[strings.ToUpper(e.Code)] = e
		r.byName[strings.ToLower(e.Name)] = e
	}
	return r
}

// Resolve looks an entity up by short code (case-insensitive exact match) or
// by display name (case-insensitive).
func (r *Registry) Resolve(key string) (Entity, bool) {
	key = strings.TrimSpace(key)
	if e, ok := r.byCode[strings.ToUpper(key)]; ok {
		return e, true
	}
	e, ok := r.byName[strings.ToLower(key)]
	return e, ok
}

// All returns every registered entity in registry order.
func (r *Registry) All() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// stateTable enumerates the states with their upstream identifiers. Numeric
// SPAN and MyEQMS ids follow each portal's own numbering and do not agree
// with each other; SPAN omits Sabah, Sarawak, and two federal territories.
func stateTable() []Entity {
	type row struct {
		code, name     string
		spanID, eqmsID string // empty when the portal has no page for the state
	}
	rows := []row{
		{"JHR", "Johor", "1", "1"},
		{"KDH", "Kedah", "2", "2"},
		{"KEL", "Kelantan", "3", "3"},
		{"MLK", "Melaka", "5", "4"},
		{"NSN", "Negeri Sembilan", "6", "5"},
		{"PHG", "Pahang", "7", "6"},
		{"PNG", "Pulau Pinang", "10", "7"},
		{"PRK", "Perak", "8", "8"},
		{"PLS", "Perlis", "9", "9"},
		{"SEL", "Selangor", "11", "10"},
		{"TRG", "Terengganu", "12", "11"},
		{"SAB", "Sabah", "", "12"},
		{"SRK", "Sarawak", "", "13"},
		{"WLH", "Wilayah Persekutuan Kuala Lumpur", "", "14"},
		{"WLP", "Wilayah Persekutuan Labuan", "4", "15"},
		{"PTJ", "Wilayah Persekutuan Putrajaya", "", "16"},
	}

	entities := make([]Entity, 0, len(rows))
	for _, s := range rows {
		codes := map[string]string{
			// Legacy infobanjir pages take the full state name in the path;
			// the modern endpoints take the JPS code.
			SourceInfobanjirPage: s.name,
			SourceInfobanjirData: s.code,
			SourceRainfallPage:   s.name,
			SourceRainfallSearch: s.code,
		}
		if s.spanID != "" {
			codes[SourceSpanWarroom] = s.spanID
		}
		if s.eqmsID != "" {
			codes[SourceMyEQMS] = s.eqmsID
		}
		entities = append(entities, Entity{Code: s.code, Name: s.name, Codes: codes})
	}
	return entities
}
