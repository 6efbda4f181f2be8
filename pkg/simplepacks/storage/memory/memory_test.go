package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memorystorage "github.com/tendant/simple-packs/pkg/simplepacks/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "packs/fire_demon/preview.png"

	t.Run("OpenIsReentrant", func(t *testing.T) {
		require.NoError(t, backend.Open(ctx))
		require.NoError(t, backend.Open(ctx))
		assert.True(t, backend.IsOpen())
	})

	t.Run("PutObject", func(t *testing.T) {
		err := backend.PutObject(ctx, testKey, []byte("png-bytes"), "image/png")
		require.NoError(t, err)

		obj, ok := backend.Get(testKey)
		require.True(t, ok)
		assert.Equal(t, []byte("png-bytes"), obj.Data)
		assert.Equal(t, "image/png", obj.ContentType)
		assert.Equal(t, 1, backend.Puts())
	})

	t.Run("Overwrite", func(t *testing.T) {
		err := backend.PutObject(ctx, testKey, []byte("v2"), "image/png")
		require.NoError(t, err)

		obj, _ := backend.Get(testKey)
		assert.Equal(t, []byte("v2"), obj.Data)
		assert.Equal(t, 1, backend.Keys())
		assert.Equal(t, 2, backend.Puts())
	})

	t.Run("PresignGetObject", func(t *testing.T) {
		url, err := backend.PresignGetObject(ctx, testKey, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "memory://"+testKey+"?expires=3600", url)
	})

	t.Run("Close", func(t *testing.T) {
		require.NoError(t, backend.Close())
		assert.False(t, backend.IsOpen())
	})
}

func TestMemoryBackend_FailOn(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	backend.FailOn("bad")

	err := backend.PutObject(ctx, "bad", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, memorystorage.ErrInjected)
	_, ok := backend.Get("bad")
	assert.False(t, ok)

	_, err = backend.PresignGetObject(ctx, "bad", time.Minute)
	assert.ErrorIs(t, err, memorystorage.ErrInjected)

	custom := errors.New("bucket gone")
	backend.FailWith("bad", custom)
	assert.ErrorIs(t, backend.PutObject(ctx, "bad", []byte("x"), ""), custom)

	backend.FailWith("bad", nil)
	assert.NoError(t, backend.PutObject(ctx, "bad", []byte("x"), ""))
}

func TestMemoryBackend_LatencyHonoursContext(t *testing.T) {
	backend := memorystorage.New()
	backend.SetLatency("slow", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := backend.PutObject(ctx, "slow", []byte("x"), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
