package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gridview/internal/dataset"
	"github.com/JonMunkholm/gridview/internal/table"
)

// HTMXSrc is where pages load htmx from.
const HTMXSrc = "https://unpkg.com/htmx.org@2.0.4"

const alertRegionID = "alerts"

// page wraps body in the HTML shell shared by every full page.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.printf(`<title>%s</title>`, templ.EscapeString(title))
		hw.printf(`<link rel="stylesheet" href="/static/grid.css">`)
		hw.printf(`<script src="%s"></script>`, HTMXSrc)
		hw.printf(`</head><body><main class="container">`)
		hw.printf(`<div id="%s" class="alerts" role="alert"></div>`, alertRegionID)
		hw.render(ctx, body)
		hw.printf(`</main></body></html>`)
		return hw.err
	})
}

// indexPage lists the registered datasets by group, each with a button that
// mounts a fresh table instance.
func indexPage(defs []dataset.Definition) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<h1>Datasets</h1>`)
		if len(defs) == 0 {
			hw.printf(`<p class="empty">No datasets configured</p>`)
			return hw.err
		}

		group, open := "", false
		for _, def := range defs {
			if !open || def.Group != group {
				if open {
					hw.printf(`</ul></section>`)
				}
				group, open = def.Group, true
				hw.printf(`<section class="dataset-group">`)
				if group != "" {
					hw.printf(`<h2>%s</h2>`, templ.EscapeString(group))
				}
				hw.printf(`<ul class="dataset-list">`)
			}
			hw.printf(`<li><form method="post" action="/datasets/%s/mount">`,
				templ.EscapeString(url.PathEscape(def.Key)))
			hw.printf(`<button type="submit" class="btn">%s</button></form>`,
				templ.EscapeString(def.DisplayTitle()))
			desc, err := def.DescriptionHTML()
			if err != nil {
				slog.Warn("dataset description", "dataset", def.Key, "error", err)
			} else if desc != "" {
				hw.printf(`<div class="dataset-desc">%s</div>`, desc)
			}
			hw.printf(`</li>`)
		}
		hw.printf(`</ul></section>`)
		return hw.err
	})
}

// tablePage is the full page around one mounted table.
func tablePage(t *table.Table, routes instanceRoutes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<nav class="grid-nav"><a href="/">&larr; Datasets</a>`)
		hw.printf(`<button type="button" class="btn btn-sm" hx-delete="%s" hx-confirm="Close this table?">Close</button></nav>`,
			templ.EscapeString(routes.Unmount()))
		hw.render(ctx, t.Component(routes))
		hw.printf(`<aside id="%s-detail" class="grid-detail"></aside>`, templ.EscapeString(routes.ID()))
		return hw.err
	})
}

// detailPanel shows every exportable column of the clicked record.
func detailPanel(columns []table.Column, r table.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div class="grid-detail-panel"><dl>`)
		for _, c := range columns {
			if c.Key == table.ActionsKey {
				continue
			}
			hw.printf(`<dt>%s</dt><dd>%s</dd>`, templ.EscapeString(c.Header), templ.EscapeString(c.Text(r)))
		}
		hw.printf(`</dl></div>`)
		return hw.err
	})
}

// errorAlert is the HTMX error fragment.
func errorAlert(msg UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div class="alert alert-error"><strong>%s</strong>`, templ.EscapeString(msg.Message))
		if msg.Action != "" {
			hw.printf(` <span class="alert-action">%s</span>`, templ.EscapeString(msg.Action))
		}
		hw.printf(` <code class="alert-code">%s</code></div>`, templ.EscapeString(msg.Code))
		return hw.err
	})
}

// htmlWriter keeps the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) printf(format string, args ...any) {
	if hw.err != nil {
		return
	}
	_, hw.err = fmt.Fprintf(hw.w, format, args...)
}

func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}
