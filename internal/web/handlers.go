package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gridview/internal/dataset"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/session"
	"github.com/JonMunkholm/gridview/internal/table"
)

const healthTimeout = 2 * time.Second

// DatasetSummary is the JSON shape of one dataset in /api/datasets.
type DatasetSummary struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Group    string   `json:"group,omitempty"`
	Columns  []string `json:"columns"`
	RowClick bool     `json:"row_click"`
}

// handleIndex renders the dataset index page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, r, page("Datasets", indexPage(dataset.All())))
}

// handleHealth reports whether the record source is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.source.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("health check failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, r, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, r, map[string]any{
		"status":    "ok",
		"datasets":  dataset.Count(),
		"instances": s.sessions.Len(),
	})
}

// handleListDatasets returns all registered datasets as JSON.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	defs := dataset.All()
	out := make([]DatasetSummary, 0, len(defs))
	for _, def := range defs {
		headers := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			headers[i] = c.Header
		}
		out = append(out, DatasetSummary{
			Key:      def.Key,
			Title:    def.DisplayTitle(),
			Group:    def.Group,
			Columns:  headers,
			RowClick: def.RowClick,
		})
	}
	writeJSON(w, r, out)
}

// handleMount fetches a dataset and mounts a fresh table instance over it.
func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "key")
	def, err := dataset.Get(key)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	ctx := r.Context()
	if s.cfg.Source.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Source.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	records, err := s.source.Fetch(ctx, def.Query)
	if err != nil {
		respondError(w, r, fmt.Errorf("fetch dataset %s: %w", def.Key, err), http.StatusBadGateway)
		return
	}

	columns := def.TableColumns(s.format)
	inst := s.sessions.MountFunc(def.Key, func(inst *session.Instance) *table.Table {
		opts := table.Options{Title: def.DisplayTitle()}
		if def.RowClick {
			opts.OnRowClick = inst.Select
		}
		return table.New(records, columns, opts)
	})

	logging.WithFields(r.Context(), "instance", inst.ID, "dataset", def.Key).Info("table mounted",
		"rows", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	location := instanceRoutes{id: inst.ID}.base()
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// handleTable renders a mounted table: the whole page, or only the table
// fragment for HTMX requests.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	inst, ok := s.instance(w, r)
	if !ok {
		return
	}
	routes := instanceRoutes{id: inst.ID}

	var buf bytes.Buffer
	var err error
	inst.Do(func(t *table.Table) {
		if isHTMX(r) {
			err = t.Component(routes).Render(r.Context(), &buf)
			return
		}
		err = page(t.Title(), tablePage(t, routes)).Render(r.Context(), &buf)
	})
	s.writeHTML(w, r, &buf, err)
}

// handleSort toggles the sort on one column and re-renders the table.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	inst, ok := s.instance(w, r)
	if !ok {
		return
	}
	col := pathParam(r, "col")
	routes := instanceRoutes{id: inst.ID}

	var buf bytes.Buffer
	var err error
	inst.Do(func(t *table.Table) {
		if !t.ToggleSort(col) {
			err = fmt.Errorf("%w: %q is not sortable", errUnknownColumn, col)
			return
		}
		err = t.Component(routes).Render(r.Context(), &buf)
	})
	s.writeHTML(w, r, &buf, err)
}

// handleFilter sets one column's filter from form value q and re-renders
// only the body, so the focused filter box is left alone.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	inst, ok := s.instance(w, r)
	if !ok {
		return
	}
	col := pathParam(r, "col")
	q := r.FormValue("q")
	routes := instanceRoutes{id: inst.ID}

	var buf bytes.Buffer
	var err error
	inst.Do(func(t *table.Table) {
		if !t.SetFilter(col, q) {
			err = fmt.Errorf("%w: %q is not filterable", errUnknownColumn, col)
			return
		}
		err = t.Body(routes).Render(r.Context(), &buf)
	})
	s.writeHTML(w, r, &buf, err)
}

// handleRowClick forwards a click on a view row to the table and renders
// the selected record.
func (s *Server) handleRowClick(w http.ResponseWriter, r *http.Request) {
	inst, ok := s.instance(w, r)
	if !ok {
		return
	}
	index, convErr := strconv.Atoi(chi.URLParam(r, "index"))

	var buf bytes.Buffer
	var err error
	inst.Do(func(t *table.Table) {
		if convErr != nil || !t.Click(index) {
			err = fmt.Errorf("%w: %q", errInvalidRow, chi.URLParam(r, "index"))
			return
		}
		err = detailPanel(t.Columns(), inst.Selected()).Render(r.Context(), &buf)
	})
	s.writeHTML(w, r, &buf, err)
}

// handleExport downloads the current view as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	inst, ok := s.instance(w, r)
	if !ok {
		return
	}

	store := &responseBlobStore{w: w}
	var alerted string
	alert := table.AlertFunc(func(message string) { alerted = message })

	var exported bool
	inst.Do(func(t *table.Table) {
		exported = t.Export(store, alert, s.now().In(s.location))
	})
	if exported {
		logging.WithFields(r.Context(), "instance", inst.ID, "dataset", inst.DatasetKey).Info("table exported")
		return
	}
	if store.triggered {
		// The download already started; the failure was logged by Export.
		return
	}
	respondError(w, r, fmt.Errorf("%w: %s", errExportFailed, alerted), http.StatusInternalServerError)
}

// handleUnmount drops a table instance.
func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Unmount(id); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	logging.WithFields(r.Context(), "instance", id).Info("table unmounted")

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
	}
	w.WriteHeader(http.StatusNoContent)
}

// instance resolves the {id} URL parameter, answering the error itself.
func (s *Server) instance(w http.ResponseWriter, r *http.Request) (*session.Instance, bool) {
	inst, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return inst, true
}

// renderHTML renders c fully before writing so render errors still get a
// proper error response.
func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	err := c.Render(r.Context(), &buf)
	s.writeHTML(w, r, &buf, err)
}

func (s *Server) writeHTML(w http.ResponseWriter, r *http.Request, buf *bytes.Buffer, err error) {
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("write response", "error", err)
	}
}

// pathParam returns a decoded URL parameter. chi matches on the raw path
// when the request path holds escapes, leaving those params encoded.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
