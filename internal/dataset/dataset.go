// Package dataset describes the record sets the application can show.
//
// Definitions are loaded from a YAML file at startup and kept in a registry.
// Each Definition knows the query that produces its rows and how to turn
// its column list into table.Column values.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/gridview/internal/table"
)

// ErrUnknown is returned when a dataset key is not registered.
var ErrUnknown = errors.New("unknown dataset")

// Format names a display format for a column.
type Format string

const (
	FormatText     Format = ""
	FormatCurrency Format = "currency"
	FormatNumber   Format = "number"
	FormatDate     Format = "date"
)

// Definition describes one dataset.
type Definition struct {
	Key         string   `yaml:"key"`         // Unique identifier: "products"
	Title       string   `yaml:"title"`       // Table title and export filename prefix
	Group       string   `yaml:"group"`       // Sidebar grouping: "Inventory", "Sales"
	Description string   `yaml:"description"` // Markdown shown on the index page
	Query       string   `yaml:"query"`       // SELECT producing the rows
	RowClick    bool     `yaml:"row_click"`   // Show a detail panel on row click
	Columns     []Column `yaml:"columns"`
}

// Column describes one column of a dataset.
type Column struct {
	Key        string `yaml:"key"`
	Header     string `yaml:"header"`
	Field      string `yaml:"field"`  // Record field; defaults to Key
	Format     Format `yaml:"format"` // Display format; empty reads the field as-is
	Sortable   bool   `yaml:"sortable"`
	Filterable *bool  `yaml:"filterable"` // nil means filterable
	Links      []Link `yaml:"links"`      // Row action buttons
}

// Link is a row action rendered as a button. Href may contain {field}
// placeholders that are replaced with the row's values.
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// File is the top-level YAML document.
type File struct {
	Datasets []Definition `yaml:"datasets"`
}

// LoadFile reads and validates dataset definitions from path.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datasets: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates dataset definitions.
func Parse(data []byte) ([]Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse datasets: %w", err)
	}

	seen := make(map[string]bool)
	var errs []string
	for _, def := range f.Datasets {
		if def.Key != "" && seen[def.Key] {
			errs = append(errs, fmt.Sprintf("duplicate dataset key %q", def.Key))
		}
		seen[def.Key] = true
		errs = append(errs, def.validate()...)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid datasets:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return f.Datasets, nil
}

// validate returns a message per problem found in the definition.
func (d Definition) validate() []string {
	var errs []string
	name := d.Key
	if name == "" {
		name = "(unnamed)"
		errs = append(errs, "dataset key is required")
	}
	if strings.TrimSpace(d.Query) == "" {
		errs = append(errs, fmt.Sprintf("%s: query is required", name))
	}
	if len(d.Columns) == 0 {
		errs = append(errs, fmt.Sprintf("%s: at least one column is required", name))
	}

	keys := make(map[string]bool)
	for i, c := range d.Columns {
		if c.Key == "" {
			errs = append(errs, fmt.Sprintf("%s: column %d has no key", name, i+1))
			continue
		}
		if keys[c.Key] {
			errs = append(errs, fmt.Sprintf("%s: duplicate column key %q", name, c.Key))
		}
		keys[c.Key] = true

		switch c.Format {
		case FormatText, FormatCurrency, FormatNumber, FormatDate:
		default:
			errs = append(errs, fmt.Sprintf("%s: column %q has unknown format %q", name, c.Key, c.Format))
		}
		if len(c.Links) > 0 && c.Key != table.ActionsKey {
			errs = append(errs, fmt.Sprintf("%s: column %q has links; only the %q column may", name, c.Key, table.ActionsKey))
		}
		for _, l := range c.Links {
			if l.Label == "" || l.Href == "" {
				errs = append(errs, fmt.Sprintf("%s: column %q has a link without label or href", name, c.Key))
			}
		}
	}
	return errs
}

// DisplayTitle returns the title, falling back to the key.
func (d Definition) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Key
}

// markdown renders descriptions. Raw HTML in the source is dropped.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// DescriptionHTML renders the description as HTML. An empty description
// renders as "".
func (d Definition) DescriptionHTML() (string, error) {
	if strings.TrimSpace(d.Description) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(d.Description), &buf); err != nil {
		return "", fmt.Errorf("render %s description: %w", d.Key, err)
	}
	return buf.String(), nil
}
