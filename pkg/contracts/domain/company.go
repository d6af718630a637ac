package domain

import (
	"strconv"
)

// CompanyRecord represents one index constituent after the join.
// Columns holds every column of the constituent list in file order, with
// the projected change column appended; Values is parallel to it.
type CompanyRecord struct {
	Symbol string   `json:"symbol" validate:"required"`
	Name   string   `json:"name,omitempty"`
	YTD    float64  `json:"ytd"`
	Sector string   `json:"sector,omitempty"` // empty until enrichment
	Values []string `json:"values,omitempty"`
}

// HasSector reports whether the record has been enriched.
func (r CompanyRecord) HasSector() bool {
	return r.Sector != ""
}

// MergedTable is the ordered result of joining the constituent list with the
// price-change list. Record order is the order produced by the join.
type MergedTable struct {
	Columns   []string        `json:"columns"`
	JoinKey   string          `json:"join_key"`
	ChangeKey string          `json:"change_key"`
	Records   []CompanyRecord `json:"records"`
	Enriched  bool            `json:"enriched"`
}

// SectorColumn is the column name the enrichment stage adds.
const SectorColumn = "Sector"

// Len returns the number of records.
func (t *MergedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Symbols returns the join keys in table order.
func (t *MergedTable) Symbols() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Symbol
	}
	return out
}

// Clone returns a deep copy so that stages never mutate their input.
func (t *MergedTable) Clone() *MergedTable {
	if t == nil {
		return nil
	}
	clone := &MergedTable{
		Columns:   append([]string(nil), t.Columns...),
		JoinKey:   t.JoinKey,
		ChangeKey: t.ChangeKey,
		Records:   make([]CompanyRecord, len(t.Records)),
		Enriched:  t.Enriched,
	}
	for i, r := range t.Records {
		r.Values = append([]string(nil), r.Values...)
		clone.Records[i] = r
	}
	return clone
}

// Header returns the column names including the sector column once the
// table has been enriched.
func (t *MergedTable) Header() []string {
	header := append([]string(nil), t.Columns...)
	if t.Enriched {
		header = append(header, SectorColumn)
	}
	return header
}

// Row returns the string cells of record i matching Header.
func (t *MergedTable) Row(i int) []string {
	r := t.Records[i]
	row := make([]string, 0, len(t.Columns)+1)
	row = append(row, r.Values...)
	for len(row) < len(t.Columns) {
		row = append(row, "")
	}
	if t.Enriched {
		row = append(row, r.Sector)
	}
	return row
}

// FormatChange renders a year-to-date change value the way it appears in
// serialized tables.
func FormatChange(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
