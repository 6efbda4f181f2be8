package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-packs/pkg/simplepacks"
)

func TestInsertSQL(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		cols     []string
		n        int
		expected string
	}{
		{
			name:     "single row",
			table:    "packs",
			cols:     []string{"name", "rarity"},
			n:        1,
			expected: `INSERT INTO "packs" ("name", "rarity") VALUES ($1, $2)`,
		},
		{
			name:     "three rows",
			table:    "pack_sounds",
			cols:     []string{"pack_id", "file_url", "sort_order"},
			n:        3,
			expected: `INSERT INTO "pack_sounds" ("pack_id", "file_url", "sort_order") VALUES ($1, $2, $3), ($4, $5, $6), ($7, $8, $9)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, insertSQL(tt.table, tt.cols, tt.n))
		})
	}
}

func TestHandlePostgresError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "packs_pkey"}, "duplicate entry (packs_pkey)"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, "referenced record not found"},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "name"}, "required field name is missing"},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, "database migration required"},
		{"other pg", &pgconn.PgError{Code: "XX000", Message: "internal"}, "database error: internal (code: XX000)"},
		{"non pg", errors.New("conn refused"), "conn refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handlePostgresError("packs", "insert", tt.err)

			var persistErr *simplepacks.PersistenceError
			require.True(t, errors.As(err, &persistErr))
			assert.Equal(t, "packs", persistErr.Table)
			assert.Equal(t, "insert", persistErr.Op)
			assert.Contains(t, err.Error(), tt.contains)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPoolConfig(t *testing.T) {
	t.Run("RequiresURL", func(t *testing.T) {
		_, err := PoolConfig(Config{})
		assert.Error(t, err)
	})

	t.Run("Defaults", func(t *testing.T) {
		cfg, err := PoolConfig(Config{URL: "postgres://u:p@localhost:5432/db"})
		require.NoError(t, err)
		assert.Equal(t, int32(DefaultPoolSize+DefaultMaxOverflow), cfg.MaxConns)
		assert.Nil(t, cfg.AfterConnect)
		assert.Nil(t, cfg.ConnConfig.Tracer)
	})

	t.Run("NegativeOverflowDisablesOverflow", func(t *testing.T) {
		cfg, err := PoolConfig(Config{URL: "postgres://u:p@localhost:5432/db", PoolSize: 4, MaxOverflow: -1})
		require.NoError(t, err)
		assert.Equal(t, int32(4), cfg.MaxConns)
	})

	t.Run("SchemaAndEcho", func(t *testing.T) {
		cfg, err := PoolConfig(Config{
			URL:         "postgres://u:p@localhost:5432/db",
			PoolSize:    2,
			MaxOverflow: 3,
			Schema:      "content",
			Echo:        true,
		})
		require.NoError(t, err)
		assert.Equal(t, int32(5), cfg.MaxConns)
		assert.NotNil(t, cfg.AfterConnect)
		assert.NotNil(t, cfg.ConnConfig.Tracer)
	})
}

func TestInsert_RejectsBadColumnsWithoutDatabase(t *testing.T) {
	// A nil pool would panic if any statement were attempted
	repo := &Repository{acquireTimeout: time.Second}
	ctx := context.Background()

	_, err := repo.InsertOne(ctx, simplepacks.PacksTable, simplepacks.Row{"bogus": 1})
	assert.ErrorIs(t, err, simplepacks.ErrPersistence)

	err = repo.InsertMany(ctx, simplepacks.PackSoundsTable, []simplepacks.Row{
		{"pack_id": "a", "file_url": "u", "sort_order": 0},
		{"pack_id": "a", "file_url": "u"},
	})
	assert.ErrorIs(t, err, simplepacks.ErrPersistence)

	assert.NoError(t, repo.InsertMany(ctx, simplepacks.PackSoundsTable, nil))
}
