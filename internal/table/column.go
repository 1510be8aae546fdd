// Package table provides GenericTable, a server-rendered grid that owns its
// own sort and filter state, derives a filtered+sorted view over an
// in-memory record slice, renders that view as HTML and exports it as CSV.
//
// The package has no knowledge of where records come from. Callers hand it a
// []Record and a column set; everything else (fetching, formatting,
// persistence of instances) lives in other packages.
package table

import (
	"fmt"
	"regexp"
	"time"

	"github.com/a-h/templ"
)

// ActionsKey is the reserved column key for row action controls.
// An actions column is never filterable and never exported.
const ActionsKey = "actions"

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Data List"

// Record is one row of caller-supplied data.
type Record map[string]any

// Accessor extracts a column's value from a Record.
// It is either a Field or a Derive; there are no other implementations.
type Accessor interface {
	accessor()
}

// Field reads the named field directly off the record.
type Field string

// Derive computes a column value from the whole record.
// Value must be pure: it is called during filtering, rendering and export.
type Derive struct {
	Value func(Record) any
}

func (Field) accessor()  {}
func (Derive) accessor() {}

// Column describes one table column.
type Column struct {
	Header   string   // Display label
	Key      string   // Unique within a column set; used as sort and filter key
	Accessor Accessor // Field or Derive; nil reads Field(Key)

	Sortable bool // Clicking the header toggles the sort
	NoFilter bool // Hide the per-column filter box

	// SortField is the record field compared when sorting. Empty means the
	// field a Field accessor names, or Key for any other accessor.
	SortField string

	// Render optionally produces rich display content for the cell.
	// It never feeds filtering or export, which always use the text value.
	Render func(Record) templ.Component
}

// sortField returns the record field whose raw value orders the column.
func (c Column) sortField() string {
	if c.SortField != "" {
		return c.SortField
	}
	if f, ok := c.Accessor.(Field); ok && f != "" {
		return string(f)
	}
	return c.Key
}

// Filterable reports whether the column shows a filter box.
func (c Column) Filterable() bool {
	return !c.NoFilter && c.Key != ActionsKey
}

// Value resolves the column's raw value for a record.
func (c Column) Value(r Record) any {
	switch a := c.Accessor.(type) {
	case Field:
		return r[string(a)]
	case Derive:
		return a.Value(r)
	case nil:
		return r[c.Key]
	default:
		panic(fmt.Sprintf("table: unknown accessor type %T", a))
	}
}

// Text resolves the string form of a column's value, as used by filtering
// and export. Derived strings have HTML tags stripped.
func (c Column) Text(r Record) string {
	v := c.Value(r)
	if _, derived := c.Accessor.(Derive); derived {
		if s, ok := v.(string); ok {
			return StripTags(s)
		}
	}
	return Stringify(v)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes anything that looks like an HTML tag.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Stringify converts a cell value to its display string.
// nil becomes "", and templ components (opaque markup) have no text form.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case templ.Component:
		return ""
	case time.Time:
		if val.IsZero() {
			return ""
		}
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
