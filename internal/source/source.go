// Package source fetches record arrays for datasets.
//
// A Source runs a read-only query and returns every row as a table.Record
// keyed by result column name. Paging and freshness are the caller's
// concern; each Fetch is a full, independent read.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/table"
)

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported source driver")

// Source produces records for a query.
type Source interface {
	Fetch(ctx context.Context, query string) ([]table.Record, error)
	Ping(ctx context.Context) error
	Close()
}

// Open connects to the source described by cfg.
func Open(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(ctx, cfg)
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, cfg.URL)
	case "mysql":
		return OpenMySQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
