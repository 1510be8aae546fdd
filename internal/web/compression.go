package web

import (
	"compress/gzip"
	"fmt"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"

	"github.com/JonMunkholm/gridview/internal/config"
)

// compression returns middleware that gzips responses of at least
// cfg.CompressMinSize bytes. Level "none" disables it.
func compression(cfg config.ServerConfig) (func(http.Handler) http.Handler, error) {
	var level int
	switch strings.ToLower(cfg.Compression) {
	case "none":
		return func(h http.Handler) http.Handler { return h }, nil
	case "fastest":
		level = gzip.BestSpeed
	case "best":
		level = gzip.BestCompression
	default:
		level = gzip.DefaultCompression
	}

	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.CompressMinSize),
		gzhttp.CompressionLevel(level),
	)
	if err != nil {
		return nil, fmt.Errorf("compression middleware: %w", err)
	}
	return func(h http.Handler) http.Handler { return wrap(h) }, nil
}
