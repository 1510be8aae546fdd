package web

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/dataset"
	"github.com/JonMunkholm/gridview/internal/format"
	"github.com/JonMunkholm/gridview/internal/session"
	"github.com/JonMunkholm/gridview/internal/table"
)

// fakeSource serves fixed records.
type fakeSource struct {
	records  []table.Record
	fetchErr error
	pingErr  error
	queries  []string
}

func (f *fakeSource) Fetch(_ context.Context, query string) ([]table.Record, error) {
	f.queries = append(f.queries, query)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeSource) Ping(context.Context) error { return f.pingErr }
func (f *fakeSource) Close()                     {}

func productRecords() []table.Record {
	return []table.Record{
		{"name": "Bravo", "qty": int64(5)},
		{"name": "Alpha", "qty": int64(5)},
		{"name": "Charlie", "qty": int64(2)},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{FetchTimeout: time.Second},
		Format: config.FormatConfig{TimeZone: "UTC"},
	}
}

func newTestServer(t *testing.T, src *fakeSource, cfg *config.Config) *Server {
	t.Helper()

	dataset.Clear()
	t.Cleanup(dataset.Clear)
	err := dataset.RegisterAll([]dataset.Definition{
		{
			Key:         "products",
			Title:       "Products",
			Group:       "Inventory",
			Description: "Stock on **hand**",
			Query:       "SELECT name, qty FROM products",
			RowClick:    true,
			Columns: []dataset.Column{
				{Key: "name", Header: "Name", Sortable: true},
				{Key: "qty", Header: "Qty", Format: dataset.FormatNumber, Sortable: true},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := format.New("en-US", "USD", "2006-01-02")
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(src, session.NewStore(session.Config{}), f, cfg)
	s.now = func() time.Time { return time.Date(2024, 1, 5, 15, 4, 0, 0, time.UTC) }
	return s
}

func do(s *Server, method, target string, body url.Values, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// mount mounts the products dataset and returns the instance path.
func mount(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(s, http.MethodPost, "/datasets/products/mount", nil, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("mount status = %d, want %d: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/t/") {
		t.Fatalf("Location = %q, want /t/{id}", loc)
	}
	return loc
}

// order returns the names in the order they appear in body.
func order(body string, names ...string) []string {
	type pos struct {
		name string
		at   int
	}
	var found []pos
	for _, n := range names {
		if i := strings.Index(body, ">"+n+"<"); i >= 0 {
			found = append(found, pos{n, i})
		}
	}
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].at < found[j-1].at; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	out := make([]string, len(found))
	for i, p := range found {
		out[i] = p.name
	}
	return out
}

func TestIndex_ListsDatasets(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, testConfig())

	rec := do(s, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"Inventory", `action="/datasets/products/mount"`, "Products", HTMXSrc, "<strong>hand</strong>"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestMountAndRender(t *testing.T) {
	src := &fakeSource{records: productRecords()}
	s := newTestServer(t, src, testConfig())

	loc := mount(t, s)
	if len(src.queries) != 1 || src.queries[0] != "SELECT name, qty FROM products" {
		t.Errorf("queries = %v", src.queries)
	}

	rec := do(s, http.MethodGet, loc, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	id := strings.TrimPrefix(loc, "/t/")
	for _, want := range []string{"<!DOCTYPE html>", `id="grid-` + id + `"`, `id="grid-` + id + `-detail"`, "Products"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if diff := cmp.Diff([]string{"Bravo", "Alpha", "Charlie"}, order(body, "Alpha", "Bravo", "Charlie")); diff != "" {
		t.Errorf("initial order mismatch (-want +got):\n%s", diff)
	}

	frag := do(s, http.MethodGet, loc, nil, map[string]string{"HX-Request": "true"})
	if strings.Contains(frag.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX request should get the fragment only")
	}
}

func TestSortToggle(t *testing.T) {
	s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
	loc := mount(t, s)

	rec := do(s, http.MethodPost, loc+"/sort/qty", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff([]string{"Charlie", "Bravo", "Alpha"}, order(rec.Body.String(), "Alpha", "Bravo", "Charlie")); diff != "" {
		t.Errorf("asc order mismatch (-want +got):\n%s", diff)
	}

	rec = do(s, http.MethodPost, loc+"/sort/qty", nil, nil)
	if diff := cmp.Diff([]string{"Bravo", "Alpha", "Charlie"}, order(rec.Body.String(), "Alpha", "Bravo", "Charlie")); diff != "" {
		t.Errorf("desc order mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_UnknownColumn(t *testing.T) {
	s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
	loc := mount(t, s)

	rec := do(s, http.MethodPost, loc+"/sort/missing", nil, map[string]string{"HX-Request": "true"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Header().Get("HX-Retarget"); got != "#"+alertRegionID {
		t.Errorf("HX-Retarget = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "TBL002") {
		t.Errorf("body should carry TBL002: %s", rec.Body.String())
	}
}

func TestFilter(t *testing.T) {
	s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
	loc := mount(t, s)

	rec := do(s, http.MethodPost, loc+"/filter/name", url.Values{"q": {"BR"}}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<tbody") {
		t.Errorf("filter should render the tbody only, got %q", body)
	}
	if diff := cmp.Diff([]string{"Bravo"}, order(body, "Alpha", "Bravo", "Charlie")); diff != "" {
		t.Errorf("filtered rows mismatch (-want +got):\n%s", diff)
	}

	rec = do(s, http.MethodPost, loc+"/filter/name", url.Values{"q": {"zzz"}}, nil)
	if !strings.Contains(rec.Body.String(), table.EmptyMessage) {
		t.Errorf("empty result should show %q", table.EmptyMessage)
	}
}

func TestRowClick(t *testing.T) {
	s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
	loc := mount(t, s)

	rec := do(s, http.MethodPost, loc+"/rows/1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<dd>Alpha</dd>") {
		t.Errorf("detail should show Alpha: %s", rec.Body.String())
	}

	for _, idx := range []string{"9", "-1", "x"} {
		rec = do(s, http.MethodPost, loc+"/rows/"+idx, nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("rows/%s status = %d, want %d", idx, rec.Code, http.StatusNotFound)
		}
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
	loc := mount(t, s)
	do(s, http.MethodPost, loc+"/sort/qty", nil, nil)

	rec := do(s, http.MethodGet, loc+"/export", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, table.CSVContentType) {
		t.Errorf("Content-Type = %q", ct)
	}
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("parse Content-Disposition: %v", err)
	}
	if params["filename"] != "Products_2024-01-05.csv" {
		t.Errorf("filename = %q, want %q", params["filename"], "Products_2024-01-05.csv")
	}
	if got, want := rec.Body.String(), "Name,Qty\nCharlie,2\nBravo,5\nAlpha,5"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestUnmount(t *testing.T) {
	s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
	loc := mount(t, s)

	rec := do(s, http.MethodDelete, loc, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = do(s, http.MethodGet, loc, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after unmount = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "SES001") {
		t.Errorf("body should carry SES001: %s", rec.Body.String())
	}
}

func TestMount_Errors(t *testing.T) {
	t.Run("unknown dataset", func(t *testing.T) {
		s := newTestServer(t, &fakeSource{}, testConfig())
		rec := do(s, http.MethodPost, "/datasets/nope/mount", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
		if !strings.Contains(rec.Body.String(), "TBL001") {
			t.Errorf("body should carry TBL001: %s", rec.Body.String())
		}
	})

	t.Run("query failure", func(t *testing.T) {
		s := newTestServer(t, &fakeSource{fetchErr: errors.New("query: syntax error")}, testConfig())
		rec := do(s, http.MethodPost, "/datasets/products/mount", nil, nil)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
		}
		if !strings.Contains(rec.Body.String(), "SRC003") {
			t.Errorf("body should carry SRC003: %s", rec.Body.String())
		}
	})

	t.Run("htmx redirect", func(t *testing.T) {
		s := newTestServer(t, &fakeSource{records: productRecords()}, testConfig())
		rec := do(s, http.MethodPost, "/datasets/products/mount", nil, map[string]string{"HX-Request": "true"})
		if !strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/t/") {
			t.Errorf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
		}
	})
}

func TestListDatasets(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, testConfig())

	rec := do(s, http.MethodGet, "/api/datasets", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []DatasetSummary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := []DatasetSummary{{Key: "products", Title: "Products", Group: "Inventory", Columns: []string{"Name", "Qty"}, RowClick: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("datasets mismatch (-want +got):\n%s", diff)
	}
}

func TestListDatasets_RequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, &fakeSource{}, cfg)

	if rec := do(s, http.MethodGet, "/api/datasets", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := do(s, http.MethodGet, "/api/datasets", nil, map[string]string{"X-API-Key": "secret"}); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, testConfig())
	if rec := do(s, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	s = newTestServer(t, &fakeSource{pingErr: errors.New("connection refused")}, testConfig())
	if rec := do(s, http.MethodGet, "/healthz", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, &fakeSource{}, cfg)

	for i := 0; i < 2; i++ {
		if rec := do(s, http.MethodGet, "/api/datasets", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(s, http.MethodGet, "/api/datasets", nil, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", resp.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, testConfig())
	rec := do(s, http.MethodGet, "/", nil, nil)
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if rec.Header().Get("Content-Security-Policy") != "" {
		t.Error("CSP should be off when disabled")
	}
}

func TestCompression(t *testing.T) {
	cfg := testConfig()
	s := newTestServer(t, &fakeSource{}, cfg)

	rec := do(s, http.MethodGet, "/", nil, map[string]string{"Accept-Encoding": "gzip"})
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "Datasets") {
		t.Errorf("decompressed body = %q", body)
	}

	cfg.Server.Compression = "none"
	s = newTestServer(t, &fakeSource{}, cfg)
	rec = do(s, http.MethodGet, "/", nil, map[string]string{"Accept-Encoding": "gzip"})
	if rec.Header().Get("Content-Encoding") != "" {
		t.Errorf("Content-Encoding = %q with compression off", rec.Header().Get("Content-Encoding"))
	}
}
