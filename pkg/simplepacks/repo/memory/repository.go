package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// ErrForeignKey is returned when a pack_sounds row references an unknown pack
var ErrForeignKey = errors.New("referenced record not found")

// Repository implements simplepacks.Repository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	tables map[string][]simplepacks.Row
	failOn map[string]error
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		tables: make(map[string][]simplepacks.Row),
		failOn: make(map[string]error),
	}
}

var _ simplepacks.Repository = (*Repository)(nil)

// InsertOne stores row and returns a copy with a generated "id"
func (r *Repository) InsertOne(ctx context.Context, table simplepacks.Table, row simplepacks.Row) (simplepacks.Row, error) {
	if _, err := table.Columns(row); err != nil {
		return nil, &simplepacks.PersistenceError{Table: table.Name, Op: "insert", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLocked(table, row); err != nil {
		return nil, &simplepacks.PersistenceError{Table: table.Name, Op: "insert", Err: err}
	}

	stored := r.withDefaults(table, row)
	r.tables[table.Name] = append(r.tables[table.Name], stored)
	return copyRow(stored), nil
}

// InsertMany stores all rows or none
func (r *Repository) InsertMany(ctx context.Context, table simplepacks.Table, rows []simplepacks.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := table.Columns(rows...); err != nil {
		return &simplepacks.PersistenceError{Table: table.Name, Op: "insert_many", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make([]simplepacks.Row, 0, len(rows))
	for _, row := range rows {
		if err := r.checkLocked(table, row); err != nil {
			return &simplepacks.PersistenceError{Table: table.Name, Op: "insert_many", Err: err}
		}
		batch = append(batch, r.withDefaults(table, row))
	}
	r.tables[table.Name] = append(r.tables[table.Name], batch...)
	return nil
}

// Close is a no-op
func (r *Repository) Close() {}

// FailOn makes inserts into table fail with err; nil clears the fault
func (r *Repository) FailOn(table string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failOn, table)
		return
	}
	r.failOn[table] = err
}

// Rows returns copies of the rows stored in table
func (r *Repository) Rows(table string) []simplepacks.Row {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]simplepacks.Row, len(r.tables[table]))
	for i, row := range r.tables[table] {
		out[i] = copyRow(row)
	}
	return out
}

func (r *Repository) checkLocked(table simplepacks.Table, row simplepacks.Row) error {
	if err := r.failOn[table.Name]; err != nil {
		return err
	}
	if table.Name == simplepacks.PackSoundsTable.Name {
		packID := fmt.Sprint(row["pack_id"])
		for _, pack := range r.tables[simplepacks.PacksTable.Name] {
			if pack["id"] == packID {
				return nil
			}
		}
		return fmt.Errorf("%w: pack %s", ErrForeignKey, packID)
	}
	return nil
}

func (r *Repository) withDefaults(table simplepacks.Table, row simplepacks.Row) simplepacks.Row {
	stored := copyRow(row)
	stored["id"] = uuid.NewString()
	if table.Name == simplepacks.PacksTable.Name {
		if _, ok := stored["rarity"]; !ok {
			stored["rarity"] = simplepacks.DefaultRarity
		}
	}
	return stored
}

func copyRow(row simplepacks.Row) simplepacks.Row {
	out := make(simplepacks.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
