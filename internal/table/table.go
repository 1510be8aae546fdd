package table

import (
	"slices"
	"strings"

	"github.com/a-h/templ"
)

// Options holds the optional GenericTable configuration.
type Options struct {
	// Title is shown above the grid and used as the export filename prefix.
	// Defaults to DefaultTitle.
	Title string

	// Actions are extra toolbar controls rendered next to Export.
	Actions templ.Component

	// OnRowClick, when set, makes body rows clickable. It receives the
	// original record, not a copy or an index.
	OnRowClick func(Record)
}

// Table is one GenericTable instance.
//
// A Table owns its sort and filter state for its whole lifetime; both start
// empty and are only discarded with the Table itself. It is not safe for
// concurrent use.
type Table struct {
	data    []Record
	columns []Column
	byKey   map[string]int
	opts    Options

	sort    *Sort
	filters Filters

	view  []Record
	dirty bool
}

// New creates a Table over data with the given columns.
// The column set is fixed for the lifetime of the Table.
func New(data []Record, columns []Column, opts Options) *Table {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	byKey := make(map[string]int, len(columns))
	for i, c := range columns {
		byKey[c.Key] = i
	}
	return &Table{
		data:    data,
		columns: columns,
		byKey:   byKey,
		opts:    opts,
		filters: Filters{},
		dirty:   true,
	}
}

// Title returns the configured title.
func (t *Table) Title() string { return t.opts.Title }

// Columns returns the column set.
func (t *Table) Columns() []Column { return t.columns }

// Len returns the number of input rows, before filtering.
func (t *Table) Len() int { return len(t.data) }

// Sort returns the active sort, or nil when rows are in input order.
func (t *Table) Sort() *Sort {
	if t.sort == nil {
		return nil
	}
	s := *t.sort
	return &s
}

// Filters returns a copy of the current filter text per column.
func (t *Table) Filters() Filters { return t.filters.clone() }

// SetData replaces the input rows, keeping sort and filter state.
func (t *Table) SetData(data []Record) {
	t.data = data
	t.dirty = true
}

// SetFilter replaces the filter text for a column.
// It reports false and does nothing when the column is unknown or not
// filterable.
func (t *Table) SetFilter(key, text string) bool {
	i, ok := t.byKey[key]
	if !ok || !t.columns[i].Filterable() {
		return false
	}
	if t.filters[key] == text {
		return true
	}
	t.filters[key] = text
	t.dirty = true
	return true
}

// ToggleSort handles a click on a column header. A sortable column becomes
// the ascending sort key, or flips direction if it already is the sort key.
// It reports false for unknown or non-sortable columns.
func (t *Table) ToggleSort(key string) bool {
	i, ok := t.byKey[key]
	if !ok || !t.columns[i].Sortable {
		return false
	}
	t.sort = t.sort.next(key)
	t.dirty = true
	return true
}

// View returns the derived rows: input order, filtered, then sorted.
// The result is cached until data, filters or sort change and must not be
// modified by the caller.
func (t *Table) View() []Record {
	if t.dirty {
		t.view = t.derive()
		t.dirty = false
	}
	return t.view
}

// Click invokes OnRowClick with the record at view index i.
// It reports false when rows are not clickable or i is out of range.
func (t *Table) Click(i int) bool {
	if t.opts.OnRowClick == nil {
		return false
	}
	view := t.View()
	if i < 0 || i >= len(view) {
		return false
	}
	t.opts.OnRowClick(view[i])
	return true
}

// Clickable reports whether body rows accept clicks.
func (t *Table) Clickable() bool { return t.opts.OnRowClick != nil }

func (t *Table) derive() []Record {
	type activeFilter struct {
		col    Column
		needle string
	}
	var active []activeFilter
	for key, text := range t.filters {
		if text == "" {
			continue
		}
		i, ok := t.byKey[key]
		if !ok {
			continue
		}
		active = append(active, activeFilter{col: t.columns[i], needle: strings.ToLower(text)})
	}

	out := make([]Record, 0, len(t.data))
	for _, r := range t.data {
		keep := true
		for _, f := range active {
			if !strings.Contains(strings.ToLower(f.col.Text(r)), f.needle) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}

	if t.sort != nil {
		key := t.sort.Key
		if i, ok := t.byKey[key]; ok {
			key = t.columns[i].sortField()
		}
		desc := t.sort.Direction == Desc
		slices.SortStableFunc(out, func(a, b Record) int {
			c := compareValues(a[key], b[key])
			if desc {
				return -c
			}
			return c
		})
	}
	return out
}
