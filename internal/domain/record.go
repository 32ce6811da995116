package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Metadata columns injected into every record. state_code and state_name are
// pinned to the front of the encoded dataset; scraped_at rides along in
// first-seen position.
const (
	ColStateCode = "state_code"
	ColStateName = "state_name"
	ColScrapedAt = "scraped_at"
)

// MYT is Malaysian standard time; upstream timestamps and the scraped_at
// column use it, matching the portals.
var MYT = time.FixedZone("MYT", 8*60*60)

// TableSchema is the ordered column list reconciled from a scraped table's
// header rows. Built fresh per (entity, source) attempt; layouts differ
// between sources so schemas are never reused across them.
type TableSchema struct {
	Columns []string
}

// Width returns the number of columns a data row must have to be accepted.
func (s TableSchema) Width() int { return len(s.Columns) }

// Field is one column/value pair of a record.
type Field struct {
	Column string
	Value  string
}

// Record is an ordered column→value mapping for one harvested row. Immutable
// by convention after the normalizer returns it.
type Record struct {
	Fields []Field
}

// Get returns the value for a column and whether it is present.
func (r Record) Get(column string) (string, bool) {
	for _, f := range r.Fields {
		if f.Column == column {
			return f.Value, true
		}
	}
	return "", false
}

// Columns returns the record's column names in order.
func (r Record) Columns() []string {
	cols := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		cols[i] = f.Column
	}
	return cols
}

// MarshalJSON emits the record as a flat JSON object preserving field order,
// the shape downstream stream consumers expect.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Column)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
