package table

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CSVContentType is the MIME type of exported files.
const CSVContentType = "text/csv"

// ExportFailedMessage is shown to the user when an export cannot be built.
const ExportFailedMessage = "Failed to export data"

// BlobStore creates downloadable objects, like a browser object URL.
type BlobStore interface {
	Create(content []byte, contentType string) (Blob, error)
}

// Blob is a transient downloadable object. Revoke must be called once the
// download has been triggered.
type Blob interface {
	Trigger(filename string) error
	Revoke()
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

// Alert calls f(message).
func (f AlertFunc) Alert(message string) { f(message) }

var errNoBlobStore = errors.New("no blob store configured")

// CSV builds the export text for the current view.
// The actions column is left out of both the header and the rows.
func (t *Table) CSV() string {
	cols := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		if c.Key != ActionsKey {
			cols = append(cols, c)
		}
	}

	var b strings.Builder
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}
	b.WriteString(strings.Join(headers, ","))

	cells := make([]string, len(cols))
	for _, r := range t.View() {
		for i, c := range cols {
			cells[i] = escapeCSV(c.Text(r))
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, ","))
	}
	return b.String()
}

// escapeCSV quotes a cell only when it contains a comma. Cells holding
// quotes or newlines but no comma are written as-is.
func escapeCSV(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFilename returns "{title}_{YYYY-MM-DD}.csv", with "data" standing
// in for an empty title.
func ExportFilename(title string, now time.Time) string {
	if title == "" {
		title = "data"
	}
	return title + "_" + now.Format(time.DateOnly) + ".csv"
}

// Export builds the CSV for the current view and hands it to store as a
// download. Failures are logged, reported through alert and swallowed;
// the table state is never touched. It reports whether the download was
// triggered.
func (t *Table) Export(store BlobStore, alert Alerter, now time.Time) bool {
	filename := ExportFilename(t.opts.Title, now)
	if err := t.export(store, filename); err != nil {
		slog.Warn("table export failed",
			"title", t.opts.Title,
			"filename", filename,
			"error", err,
		)
		if alert != nil {
			alert.Alert(ExportFailedMessage)
		}
		return false
	}
	return true
}

func (t *Table) export(store BlobStore, filename string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build export: %v", r)
		}
	}()
	if store == nil {
		return errNoBlobStore
	}
	blob, err := store.Create([]byte(t.CSV()), CSVContentType)
	if err != nil {
		return err
	}
	defer blob.Revoke()
	return blob.Trigger(filename)
}
