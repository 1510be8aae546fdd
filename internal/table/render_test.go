package table

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

type testRoutes struct{}

func (testRoutes) ID() string                { return "grid-1" }
func (testRoutes) Sort(key string) string    { return "/t/1/sort/" + key }
func (testRoutes) Filter(key string) string  { return "/t/1/filter/" + key }
func (testRoutes) Export() string            { return "/t/1/export" }
func (testRoutes) RowClick(index int) string { return fmt.Sprintf("/t/1/rows/%d", index) }

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestComponent_Header(t *testing.T) {
	cols := append(widgetColumns(),
		Column{Header: "Id", Key: "id"},
		Column{Header: "Actions", Key: ActionsKey},
	)
	tbl := New(widgetRows(), cols, Options{
		Title:   "Widgets",
		Actions: templ.Raw(`<a class="btn" href="/widgets/new">New</a>`),
	})
	html := render(t, tbl.Component(testRoutes{}))

	for _, want := range []string{
		`<h2 class="grid-title">Widgets</h2>`,
		`<a class="btn" href="/widgets/new">New</a><a class="btn btn-export" href="/t/1/export">Export</a>`,
		`hx-post="/t/1/sort/name"`,
		`hx-post="/t/1/filter/qty"`,
		`placeholder="Filter..."`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered table missing %q", want)
		}
	}

	if strings.Contains(html, "/t/1/sort/id") {
		t.Error("non-sortable column rendered a sort control")
	}
	if strings.Contains(html, "/t/1/filter/actions") {
		t.Error("actions column rendered a filter box")
	}
	if got := strings.Count(html, `class="grid-filter"`); got != 3 {
		t.Errorf("filter boxes = %d, want 3", got)
	}
}

func TestComponent_SortIndicator(t *testing.T) {
	tbl := New(widgetRows(), widgetColumns(), Options{})

	if html := render(t, tbl.Component(testRoutes{})); strings.Count(html, "&#8693;") != 2 {
		t.Error("unsorted table should show the neutral indicator on both sortable columns")
	}

	tbl.ToggleSort("qty")
	if html := render(t, tbl.Component(testRoutes{})); !strings.Contains(html, "&#9650;") {
		t.Error("ascending indicator missing")
	}

	tbl.ToggleSort("qty")
	if html := render(t, tbl.Component(testRoutes{})); !strings.Contains(html, "&#9660;") {
		t.Error("descending indicator missing")
	}
}

func TestBody_Rows(t *testing.T) {
	tbl := New(widgetRows(), widgetColumns(), Options{})
	html := render(t, tbl.Body(testRoutes{}))

	if got := strings.Count(html, `<tr class="grid-row">`); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}
	if strings.Contains(html, "hx-post") || strings.Contains(html, "cursor") {
		t.Error("rows without OnRowClick must not be interactive")
	}
	if i, j := strings.Index(html, "Bravo"), strings.Index(html, "Alpha"); i > j {
		t.Error("rows not rendered in view order")
	}
}

func TestBody_Clickable(t *testing.T) {
	tbl := New(widgetRows(), widgetColumns(), Options{OnRowClick: func(Record) {}})
	html := render(t, tbl.Body(testRoutes{}))

	for i := 0; i < 3; i++ {
		want := fmt.Sprintf(`hx-post="/t/1/rows/%d"`, i)
		if !strings.Contains(html, want) {
			t.Errorf("row %d missing click target %q", i, want)
		}
	}
	if !strings.Contains(html, "cursor: pointer") {
		t.Error("clickable rows missing pointer cursor")
	}
}

func TestBody_EmptyState(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		tbl := New(nil, widgetColumns(), Options{})
		html := render(t, tbl.Body(testRoutes{}))
		if !strings.Contains(html, `colspan="2">No records found</td>`) {
			t.Errorf("empty table missing full-width message: %s", html)
		}
	})

	t.Run("all filtered out", func(t *testing.T) {
		tbl := New(widgetRows(), widgetColumns(), Options{})
		tbl.SetFilter("name", "zulu")
		html := render(t, tbl.Body(testRoutes{}))
		if !strings.Contains(html, EmptyMessage) {
			t.Errorf("filtered-out table missing %q", EmptyMessage)
		}
	})
}

func TestBody_CellContent(t *testing.T) {
	rows := []Record{{
		"name":   "<script>alert(1)</script>",
		"badge":  templ.Raw(`<span class="badge">VIP</span>`),
		"status": "open",
	}}
	cols := []Column{
		{Header: "Name", Key: "name"},
		{Header: "Badge", Key: "badge"},
		{Header: "Status", Key: "status", Render: func(r Record) templ.Component {
			return templ.Raw(`<em>` + r["status"].(string) + `</em>`)
		}},
	}
	html := render(t, New(rows, cols, Options{}).Body(testRoutes{}))

	if strings.Contains(html, "<script>") {
		t.Error("text values must be escaped")
	}
	if !strings.Contains(html, `<span class="badge">VIP</span>`) {
		t.Error("component field value not rendered as markup")
	}
	if !strings.Contains(html, `<em>open</em>`) {
		t.Error("column Render not used")
	}
}
