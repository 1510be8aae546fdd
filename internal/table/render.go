package table

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// EmptyMessage is rendered when the derived view has no rows, whether the
// input was empty or every row was filtered out.
const EmptyMessage = "No records found"

// FilterPlaceholder is the placeholder text of column filter boxes.
const FilterPlaceholder = "Filter..."

// Routes supplies the URLs the rendered table posts interactions to.
type Routes interface {
	ID() string // Unique DOM id prefix for this instance
	Sort(key string) string
	Filter(key string) string
	Export() string

	// RowClick addresses a row by its index in the view rendered now.
	// The index is resolved against the instance's current view when the
	// click arrives, so it assumes one page per instance: a stale page
	// showing an older filter or sort of the same instance selects
	// whatever record now sits at that index.
	RowClick(index int) string
}

// Component renders the whole table: toolbar, header and body.
func (t *Table) Component(routes Routes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		id := templ.EscapeString(routes.ID())

		ew.printf(`<div class="grid-table" id="%s">`, id)
		ew.printf(`<div class="grid-toolbar"><h2 class="grid-title">%s</h2><div class="grid-actions">`,
			templ.EscapeString(t.opts.Title))
		if t.opts.Actions != nil {
			ew.render(ctx, t.opts.Actions)
		}
		ew.printf(`<a class="btn btn-export" href="%s">Export</a></div></div>`,
			templ.EscapeString(routes.Export()))

		ew.printf(`<table class="grid"><thead><tr>`)
		for _, c := range t.columns {
			t.writeHeader(ew, routes, c)
		}
		ew.printf(`</tr></thead>`)
		ew.render(ctx, t.Body(routes))
		ew.printf(`</table></div>`)
		return ew.err
	})
}

// Body renders only the tbody, which filter keystrokes swap in place so the
// focused filter box survives.
func (t *Table) Body(routes Routes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<tbody id="%s-body">`, templ.EscapeString(routes.ID()))

		view := t.View()
		if len(view) == 0 {
			ew.printf(`<tr><td class="grid-empty" colspan="%d">%s</td></tr>`,
				max(len(t.columns), 1), EmptyMessage)
		}
		for i, r := range view {
			if t.Clickable() {
				ew.printf(`<tr class="grid-row clickable" style="cursor: pointer" hx-post="%s" hx-target="#%s-detail">`,
					templ.EscapeString(routes.RowClick(i)), templ.EscapeString(routes.ID()))
			} else {
				ew.printf(`<tr class="grid-row">`)
			}
			for _, c := range t.columns {
				ew.printf(`<td>`)
				t.writeCell(ctx, ew, c, r)
				ew.printf(`</td>`)
			}
			ew.printf(`</tr>`)
		}
		ew.printf(`</tbody>`)
		return ew.err
	})
}

func (t *Table) writeHeader(ew *errWriter, routes Routes, c Column) {
	key := templ.EscapeString(c.Key)
	ew.printf(`<th data-key="%s">`, key)
	if c.Sortable {
		ew.printf(`<button type="button" class="grid-sort" hx-post="%s" hx-target="#%s" hx-swap="outerHTML">%s <span class="sort-indicator">%s</span></button>`,
			templ.EscapeString(routes.Sort(c.Key)),
			templ.EscapeString(routes.ID()),
			templ.EscapeString(c.Header),
			t.indicator(c.Key))
	} else {
		ew.printf(`<span>%s</span>`, templ.EscapeString(c.Header))
	}
	if c.Filterable() {
		ew.printf(`<input type="text" class="grid-filter" name="q" placeholder="%s" value="%s" hx-post="%s" hx-trigger="input" hx-target="#%s-body" hx-swap="outerHTML">`,
			FilterPlaceholder,
			templ.EscapeString(t.filters[c.Key]),
			templ.EscapeString(routes.Filter(c.Key)),
			templ.EscapeString(routes.ID()))
	}
	ew.printf(`</th>`)
}

func (t *Table) indicator(key string) string {
	switch {
	case t.sort == nil || t.sort.Key != key:
		return "&#8693;"
	case t.sort.Direction == Desc:
		return "&#9660;"
	default:
		return "&#9650;"
	}
}

func (t *Table) writeCell(ctx context.Context, ew *errWriter, c Column, r Record) {
	if c.Render != nil {
		ew.render(ctx, c.Render(r))
		return
	}
	v := c.Value(r)
	if comp, ok := v.(templ.Component); ok {
		ew.render(ctx, comp)
		return
	}
	ew.printf(`%s`, templ.EscapeString(Stringify(v)))
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) render(ctx context.Context, c templ.Component) {
	if ew.err != nil || c == nil {
		return
	}
	ew.err = c.Render(ctx, ew.w)
}
