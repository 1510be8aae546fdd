package dataset

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"

	"github.com/JonMunkholm/gridview/internal/format"
	"github.com/JonMunkholm/gridview/internal/table"
	"github.com/a-h/templ"
)

// TableColumns converts the definition's columns into table columns.
// Formatted columns derive their value through f; link columns render
// action buttons and carry no text value.
func (d Definition) TableColumns(f *format.Formatter) []table.Column {
	cols := make([]table.Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = c.tableColumn(f)
	}
	return cols
}

func (c Column) tableColumn(f *format.Formatter) table.Column {
	field := c.Field
	if field == "" {
		field = c.Key
	}

	col := table.Column{
		Header:   c.Header,
		Key:      c.Key,
		Accessor:  table.Field(field),
		Sortable:  c.Sortable,
		NoFilter:  c.Filterable != nil && !*c.Filterable,
		SortField: field,
	}

	if fn := formatFunc(c.Format, f); fn != nil {
		col.Accessor = table.Derive{Value: func(r table.Record) any {
			return fn(r[field])
		}}
	}

	if len(c.Links) > 0 {
		links := c.Links
		col.Accessor = table.Derive{Value: func(table.Record) any { return "" }}
		col.NoFilter = true
		col.Render = func(r table.Record) templ.Component {
			return linkButtons(links, r)
		}
	}
	return col
}

func formatFunc(fm Format, f *format.Formatter) func(any) string {
	if f == nil {
		return nil
	}
	switch fm {
	case FormatCurrency:
		return f.Currency
	case FormatNumber:
		return f.Number
	case FormatDate:
		return f.Date
	default:
		return nil
	}
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// ExpandHref replaces {field} placeholders with URL-escaped record values.
func ExpandHref(href string, r table.Record) string {
	return placeholder.ReplaceAllStringFunc(href, func(m string) string {
		name := m[1 : len(m)-1]
		return url.PathEscape(table.Stringify(r[name]))
	})
}

func linkButtons(links []Link, r table.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, l := range links {
			if _, err := fmt.Fprintf(w, `<a class="btn btn-sm" href="%s">%s</a>`,
				templ.EscapeString(ExpandHref(l.Href, r)),
				templ.EscapeString(l.Label)); err != nil {
				return err
			}
		}
		return nil
	})
}
