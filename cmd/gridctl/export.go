package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/dataset"
	"github.com/JonMunkholm/gridview/internal/format"
	"github.com/JonMunkholm/gridview/internal/table"
)

var errExportFailed = errors.New("export failed")

// viewOptions shape the table view shared by export and show.
type viewOptions struct {
	filters []string
	sortKey string
	desc    bool
}

func (o *viewOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.filters, "filter", nil, "column filter as key=text (repeatable)")
	cmd.Flags().StringVar(&o.sortKey, "sort", "", "column key to sort by")
	cmd.Flags().BoolVar(&o.desc, "desc", false, "sort descending")
}

type exportOptions struct {
	viewOptions
	outDir string
}

func newExportCmd(a *app) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export a dataset view to CSV",
		Long: `Fetches the dataset, applies the given filters and sort, and writes the
resulting view to {title}_{YYYY-MM-DD}.csv in the output directory.

Example:
  gridctl export products --filter name=bolt --sort price --desc --out ./exports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd.Context(), args[0], opts)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "output directory")
	return cmd
}

func (a *app) runExport(ctx context.Context, key string, opts *exportOptions) error {
	v, err := a.buildView(ctx, key, &opts.viewOptions)
	if err != nil {
		return err
	}

	store := &fileBlobStore{dir: opts.outDir}
	alert := table.AlertFunc(func(message string) {
		fmt.Fprintln(a.errOut, message)
	})
	if !v.table.Export(store, alert, a.now().In(v.cfg.Format.Location())) {
		return errExportFailed
	}

	rows := len(v.table.View())
	slog.Info("dataset exported", "dataset", v.def.Key, "rows", rows, "path", store.written)
	fmt.Fprintf(a.out, "wrote %d rows to %s\n", rows, store.written)
	return nil
}

// view is a fetched dataset with filters and sort applied.
type view struct {
	cfg   *config.Config
	def   dataset.Definition
	table *table.Table
}

func (a *app) buildView(ctx context.Context, key string, opts *viewOptions) (*view, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.desc && opts.sortKey == "" {
		return nil, errors.New("--desc requires --sort")
	}
	filters, err := parseFilters(opts.filters)
	if err != nil {
		return nil, err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if a.datasetsPath == "" {
		a.datasetsPath = cfg.Datasets.Path
	}
	if _, err := a.loadDatasets(); err != nil {
		return nil, err
	}
	def, err := dataset.Get(key)
	if err != nil {
		return nil, err
	}

	formatter, err := format.New(cfg.Format.Locale, cfg.Format.Currency, cfg.Format.DateLayout)
	if err != nil {
		return nil, err
	}

	src, err := a.openSource(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if cfg.Source.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Source.FetchTimeout)
		defer cancel()
	}
	records, err := src.Fetch(ctx, def.Query)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", def.Key, err)
	}

	t := table.New(records, def.TableColumns(formatter), table.Options{Title: def.DisplayTitle()})
	for _, f := range filters {
		if !t.SetFilter(f.key, f.text) {
			return nil, fmt.Errorf("unknown or unfilterable column %q", f.key)
		}
	}
	if opts.sortKey != "" {
		if !t.ToggleSort(opts.sortKey) {
			return nil, fmt.Errorf("unknown or unsortable column %q", opts.sortKey)
		}
		if opts.desc {
			t.ToggleSort(opts.sortKey)
		}
	}
	return &view{cfg: cfg, def: def, table: t}, nil
}

type columnFilter struct {
	key  string
	text string
}

// parseFilters splits key=text pairs. The text may itself contain '='.
func parseFilters(raw []string) ([]columnFilter, error) {
	out := make([]columnFilter, 0, len(raw))
	for _, r := range raw {
		key, text, ok := strings.Cut(r, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=text", r)
		}
		out = append(out, columnFilter{key: key, text: text})
	}
	return out, nil
}

// fileBlobStore turns blobs into files in dir.
type fileBlobStore struct {
	dir     string
	written string
}

func (s *fileBlobStore) Create(content []byte, contentType string) (table.Blob, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &fileBlob{store: s, content: content}, nil
}

type fileBlob struct {
	store   *fileBlobStore
	content []byte
}

// Trigger writes the content to dir/filename.
func (b *fileBlob) Trigger(filename string) error {
	path := filepath.Join(b.store.dir, filepath.Base(filename))
	if err := os.WriteFile(path, b.content, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	b.store.written = path
	return nil
}

func (b *fileBlob) Revoke() { b.content = nil }
