package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/table"
)

// SQL reads records through database/sql. It backs the sqlite and mysql
// drivers.
type SQL struct {
	db     *sql.DB
	driver string
}

// OpenSQLite opens the database at dsn (":memory:" for an in-memory one).
func OpenSQLite(ctx context.Context, dsn string) (*SQL, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	return connect(ctx, db, "sqlite")
}

// OpenMySQL connects to the MySQL server named by cfg.URL, a go-sql-driver
// DSN such as "user:pass@tcp(localhost:3306)/shop". DATETIME columns are
// always scanned as time.Time.
func OpenMySQL(ctx context.Context, cfg config.SourceConfig) (*SQL, error) {
	dsn, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	dsn.ParseTime = true

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db := sql.OpenDB(connector)
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(int(cfg.MinConns))
	}
	return connect(ctx, db, "mysql")
}

func connect(ctx context.Context, db *sql.DB, driver string) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	slog.Info("connected to database", "driver", driver)
	return &SQL{db: db, driver: driver}, nil
}

// DB exposes the handle for seeding and tests.
func (s *SQL) DB() *sql.DB { return s.db }

// Fetch runs query and returns one record per row.
func (s *SQL) Fetch(ctx context.Context, query string) ([]table.Record, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	records := make([]table.Record, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		r := make(table.Record, len(cols))
		for i, name := range cols {
			r[name] = normalizeSQL(values[i])
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Ping verifies the connection.
func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQL) Close() {
	if err := s.db.Close(); err != nil {
		slog.Warn("close database", "driver", s.driver, "error", err)
	}
}

// normalizeSQL turns driver byte slices into strings and widens integer
// widths so rows from either driver compare alike.
func normalizeSQL(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}
