package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-packs/pkg/simplepacks"
	"github.com/tendant/simple-packs/pkg/simplepacks/repo/memory"
)

func insertPack(t *testing.T, repo *memory.Repository) string {
	t.Helper()
	row, err := repo.InsertOne(context.Background(), simplepacks.PacksTable, simplepacks.Row{
		"name":              "Fire Demon",
		"preview_image_url": "https://pub.example.com/packs/fire_demon/p.png",
		"waiting_image_url": "https://pub.example.com/packs/fire_demon/w.png",
		"action_image_url":  "https://pub.example.com/packs/fire_demon/a.png",
	})
	require.NoError(t, err)
	id, ok := row["id"].(string)
	require.True(t, ok)
	return id
}

func TestRepository_InsertOne(t *testing.T) {
	repo := memory.New()

	id := insertPack(t, repo)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	rows := repo.Rows("packs")
	require.Len(t, rows, 1)
	assert.Equal(t, "Fire Demon", rows[0]["name"])
	assert.Equal(t, "common", rows[0]["rarity"], "column default applies")

	rec, err := simplepacks.PackRecordFromRow(rows[0])
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
}

func TestRepository_InsertOne_UnknownColumn(t *testing.T) {
	repo := memory.New()

	_, err := repo.InsertOne(context.Background(), simplepacks.PacksTable, simplepacks.Row{
		"name":          "x",
		"name; DROP --": "y",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, simplepacks.ErrPersistence)
	assert.Empty(t, repo.Rows("packs"))
}

func TestRepository_InsertMany(t *testing.T) {
	repo := memory.New()
	packID := insertPack(t, repo)

	rows := []simplepacks.Row{
		simplepacks.SoundRecord{PackID: packID, FileURL: "u0", SortOrder: 0}.Row(),
		simplepacks.SoundRecord{PackID: packID, FileURL: "u1", SortOrder: 1}.Row(),
		simplepacks.SoundRecord{PackID: packID, FileURL: "u2", SortOrder: 2}.Row(),
	}
	require.NoError(t, repo.InsertMany(context.Background(), simplepacks.PackSoundsTable, rows))

	stored := repo.Rows("pack_sounds")
	require.Len(t, stored, 3)
	for i, row := range stored {
		assert.Equal(t, packID, row["pack_id"])
		assert.Equal(t, i, row["sort_order"])
	}
}

func TestRepository_InsertMany_Empty(t *testing.T) {
	repo := memory.New()
	assert.NoError(t, repo.InsertMany(context.Background(), simplepacks.PackSoundsTable, nil))
	assert.Empty(t, repo.Rows("pack_sounds"))
}

func TestRepository_InsertMany_HeterogeneousColumns(t *testing.T) {
	repo := memory.New()
	packID := insertPack(t, repo)

	rows := []simplepacks.Row{
		{"pack_id": packID, "file_url": "u0", "sort_order": 0},
		{"pack_id": packID, "file_url": "u1"},
	}
	err := repo.InsertMany(context.Background(), simplepacks.PackSoundsTable, rows)

	var persistErr *simplepacks.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, "pack_sounds", persistErr.Table)
	assert.Empty(t, repo.Rows("pack_sounds"), "no rows may be written")
}

func TestRepository_InsertMany_ForeignKey(t *testing.T) {
	repo := memory.New()
	insertPack(t, repo)

	rows := []simplepacks.Row{
		simplepacks.SoundRecord{PackID: uuid.NewString(), FileURL: "u0", SortOrder: 0}.Row(),
	}
	err := repo.InsertMany(context.Background(), simplepacks.PackSoundsTable, rows)
	assert.ErrorIs(t, err, memory.ErrForeignKey)
	assert.ErrorIs(t, err, simplepacks.ErrPersistence)
	assert.Empty(t, repo.Rows("pack_sounds"))
}

func TestRepository_FailOn(t *testing.T) {
	repo := memory.New()
	boom := errors.New("connection reset")
	repo.FailOn("packs", boom)

	_, err := repo.InsertOne(context.Background(), simplepacks.PacksTable, simplepacks.Row{"name": "x"})
	assert.ErrorIs(t, err, boom)

	repo.FailOn("packs", nil)
	_, err = repo.InsertOne(context.Background(), simplepacks.PacksTable, simplepacks.Row{"name": "x"})
	assert.NoError(t, err)
}
