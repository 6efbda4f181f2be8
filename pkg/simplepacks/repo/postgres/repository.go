package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// Pool defaults
const (
	DefaultPoolSize       = 15
	DefaultMaxOverflow    = 200
	DefaultAcquireTimeout = 30 * time.Second
)

// Config holds connection settings for Connect
type Config struct {
	URL            string
	PoolSize       int
	MaxOverflow    int // zero uses DefaultMaxOverflow, negative disables overflow
	AcquireTimeout time.Duration
	Schema         string // optional search_path
	Echo           bool   // log every statement at debug level
	Logger         *slog.Logger
}

// Repository implements simplepacks.Repository using PostgreSQL
type Repository struct {
	pool           *pgxpool.Pool
	ownsPool       bool
	acquireTimeout time.Duration
}

var _ simplepacks.Repository = (*Repository)(nil)

// Connect creates a pool from cfg and returns a repository that owns it
func Connect(ctx context.Context, cfg Config) (*Repository, error) {
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	repo := NewWithPool(pool, cfg.AcquireTimeout)
	repo.ownsPool = true
	return repo, nil
}

// PoolConfig translates cfg into a pgxpool configuration
func PoolConfig(cfg Config) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	switch {
	case cfg.MaxOverflow == 0:
		cfg.MaxOverflow = DefaultMaxOverflow
	case cfg.MaxOverflow < 0:
		cfg.MaxOverflow = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.PoolSize + cfg.MaxOverflow)
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	if cfg.Schema != "" {
		schema := pgx.Identifier{cfg.Schema}.Sanitize()
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+schema)
			return err
		}
	}

	if cfg.Echo {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger: tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
				attrs := make([]any, 0, len(data)*2)
				for k, v := range data {
					attrs = append(attrs, k, v)
				}
				logger.DebugContext(ctx, msg, attrs...)
			}),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	return poolCfg, nil
}

// NewWithPool creates a repository over an existing pool. The pool is not
// closed by Close.
func NewWithPool(pool *pgxpool.Pool, acquireTimeout time.Duration) *Repository {
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	return &Repository{pool: pool, acquireTimeout: acquireTimeout}
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Close closes the pool if the repository created it
func (r *Repository) Close() {
	if r.ownsPool {
		r.pool.Close()
	}
}

// InsertOne inserts row into table and returns the stored row
func (r *Repository) InsertOne(ctx context.Context, table simplepacks.Table, row simplepacks.Row) (simplepacks.Row, error) {
	cols, err := table.Columns(row)
	if err != nil {
		return nil, &simplepacks.PersistenceError{Table: table.Name, Op: "insert", Err: err}
	}

	query := insertSQL(table.Name, cols, 1) + " RETURNING *"
	args := rowArgs(cols, row)

	var stored simplepacks.Row
	err = r.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
		if err != nil {
			return err
		}
		stored = simplepacks.Row(m)
		return nil
	})
	if err != nil {
		return nil, handlePostgresError(table.Name, "insert", err)
	}

	return stored, nil
}

// InsertMany inserts rows into table with a single multi-row statement
func (r *Repository) InsertMany(ctx context.Context, table simplepacks.Table, rows []simplepacks.Row) error {
	if len(rows) == 0 {
		return nil
	}

	cols, err := table.Columns(rows...)
	if err != nil {
		return &simplepacks.PersistenceError{Table: table.Name, Op: "insert_many", Err: err}
	}

	query := insertSQL(table.Name, cols, len(rows))
	args := make([]any, 0, len(cols)*len(rows))
	for _, row := range rows {
		args = append(args, rowArgs(cols, row)...)
	}

	err = r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return handlePostgresError(table.Name, "insert_many", err)
	}
	return nil
}

// withTx runs fn in a transaction on a dedicated connection. The transaction
// is rolled back on any error and the connection is always released.
func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	conn, err := r.pool.Acquire(acquireCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	return pgx.BeginFunc(ctx, conn, fn)
}

// insertSQL builds INSERT INTO table (cols) VALUES ($1, ...), (...) for n rows
func insertSQL(table string, cols []string, n int) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", pgx.Identifier{table}.Sanitize(), strings.Join(quoted, ", "))

	param := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", param)
			param++
		}
		b.WriteByte(')')
	}
	return b.String()
}

func rowArgs(cols []string, row simplepacks.Row) []any {
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	return args
}

// handlePostgresError maps driver errors into *simplepacks.PersistenceError
func handlePostgresError(table, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			err = fmt.Errorf("duplicate entry (%s): %w", pgErr.ConstraintName, err)
		case "23503": // foreign_key_violation
			err = fmt.Errorf("referenced record not found: %w", err)
		case "23502": // not_null_violation
			err = fmt.Errorf("required field %s is missing: %w", pgErr.ColumnName, err)
		case "42P01": // undefined_table
			err = fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			err = fmt.Errorf("database error: %s (code: %s): %w", pgErr.Message, pgErr.Code, err)
		}
	}

	return &simplepacks.PersistenceError{Table: table, Op: op, Err: err}
}
