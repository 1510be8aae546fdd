package web

import (
	"net/url"
	"strconv"
)

// instanceRoutes builds the interaction URLs of one mounted table.
type instanceRoutes struct {
	id string
}

func (r instanceRoutes) base() string { return "/t/" + url.PathEscape(r.id) }

// ID is the DOM id of the table wrapper.
func (r instanceRoutes) ID() string { return "grid-" + r.id }

func (r instanceRoutes) Sort(key string) string {
	return r.base() + "/sort/" + url.PathEscape(key)
}

func (r instanceRoutes) Filter(key string) string {
	return r.base() + "/filter/" + url.PathEscape(key)
}

func (r instanceRoutes) Export() string { return r.base() + "/export" }

// RowClick posts the view index; see table.Routes for the one-page-per-instance assumption.
func (r instanceRoutes) RowClick(index int) string {
	return r.base() + "/rows/" + strconv.Itoa(index)
}

// Unmount is the DELETE target that closes the instance.
func (r instanceRoutes) Unmount() string { return r.base() }
