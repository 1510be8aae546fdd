package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/table"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool used by Postgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Postgres reads records from PostgreSQL.
type Postgres struct {
	db    Querier
	close func()
}

// OpenPostgres creates a connection pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg config.SourceConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "driver", "postgres", "name", strings.TrimPrefix(u.Path, "/"))
	}

	return &Postgres{db: pool, close: pool.Close}, nil
}

// NewPostgres wraps an existing querier, such as a pool or transaction.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db, close: func() {}}
}

// Fetch runs query and returns one record per row.
func (p *Postgres) Fetch(ctx context.Context, query string) ([]table.Record, error) {
	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := make([]table.Record, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, recordFromValues(fields, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Ping verifies the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.close()
}

func recordFromValues(fields []pgconn.FieldDescription, values []any) table.Record {
	r := make(table.Record, len(fields))
	for i, fd := range fields {
		r[fd.Name] = normalizePg(values[i])
	}
	return r
}

// normalizePg converts pgx result values into plain Go scalars so that
// sorting compares like with like: numerics become float64, UUIDs strings.
func normalizePg(v any) any {
	switch val := v.(type) {
	case nil:
		return nil

	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64

	case pgtype.Date:
		if !val.Valid {
			return nil
		}
		return val.Time

	case pgtype.Text:
		if !val.Valid {
			return nil
		}
		return val.String

	case pgtype.Bool:
		if !val.Valid {
			return nil
		}
		return val.Bool

	case pgtype.UUID:
		if !val.Valid {
			return nil
		}
		return uuid.UUID(val.Bytes).String()

	case [16]byte:
		return uuid.UUID(val).String()

	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)

	case time.Time:
		return val

	default:
		return v
	}
}
