// Package eflr parses an assembled Explicitly Formatted Logical Record
// payload into a structured header, column template, optional invariant
// attributes, and a table of objects whose attribute values inherit
// defaults from the template.
package eflr

import "github.com/rxanders35/dlisgo/repr"

// Column is one template slot, or one object's cell under that slot.
// Value holds the decoded Count-length sequence for Reprc, or nil when
// the cell is explicitly absent (ABSATR) or was never given a value.
type Column struct {
	Label string
	Count int
	Reprc repr.Code
	Units string
	Value []any
}

// clone returns a deep copy of c, so that overriding a row's column never
// aliases into the template's column.
func (c Column) clone() Column {
	cp := c
	if c.Value != nil {
		cp.Value = append([]any(nil), c.Value...)
	}
	return cp
}

// defaultColumn is the column a template entry starts from before any
// present flag overrides a field: count 1, reprc IDENT, no units, no
// value.
func defaultColumn(label string) Column {
	return Column{Label: label, Count: 1, Reprc: repr.IDENT}
}

// ObjectRow is one row under the template, keyed by its OBNAME identity.
type ObjectRow struct {
	Name    repr.Obname
	Columns []Column // len == len(template)+len(invariants), same order
}

// Record is a fully decoded EFLR: a set header, its column template, any
// invariant attributes, and the object table.
type Record struct {
	SetType    *string
	SetName    *string
	Template   []Column
	Invariants []Column
	Objects    []ObjectRow
}

// ObjectByName returns the row for name and whether it was found.
func (r Record) ObjectByName(name repr.Obname) (ObjectRow, bool) {
	for _, o := range r.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return ObjectRow{}, false
}
