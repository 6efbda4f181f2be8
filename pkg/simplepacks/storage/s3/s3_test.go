package s3

import (
	"context"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
}

func newFakeS3(t *testing.T, status int) (*httptest.Server, *[]recordedRequest, *int32) {
	t.Helper()
	var (
		mu    sync.Mutex
		reqs  []recordedRequest
		count int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")})
		mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs, &count
}

func testConfig(endpoint string) Config {
	return Config{
		Bucket:          "packs-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        endpoint,
		UsePathStyle:    true,
	}
}

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("Defaults", func(t *testing.T) {
		backend, err := New(Config{Bucket: "b"})
		require.NoError(t, err)
		assert.Equal(t, DefaultRegion, backend.config.Region)
		assert.Equal(t, DefaultMaxAttempts, backend.config.MaxAttempts)
		assert.Nil(t, backend.client, "client must not be built before Open")
	})
}

func TestS3Backend_OpenClose(t *testing.T) {
	backend, err := New(testConfig("http://127.0.0.1:9"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Open(ctx))
	first := backend.client
	require.NotNil(t, first)

	require.NoError(t, backend.Open(ctx))
	assert.Same(t, first, backend.client, "Open must be re-entrant")

	require.NoError(t, backend.Close())
	assert.Nil(t, backend.client)
	require.NoError(t, backend.Close())
}

func TestS3Backend_PresignGetObject(t *testing.T) {
	backend, err := New(testConfig("http://127.0.0.1:9000"))
	require.NoError(t, err)

	raw, err := backend.PresignGetObject(context.Background(), "packs/fire_demon/preview.png", 365*24*time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/packs-bucket/packs/fire_demon/preview.png", u.Path)
	assert.Equal(t, "31536000", u.Query().Get("X-Amz-Expires"))
	assert.Equal(t, "AWS4-HMAC-SHA256", u.Query().Get("X-Amz-Algorithm"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	// presigning lazily opens a closed store
	require.NoError(t, backend.Close())
	_, err = backend.PresignGetObject(context.Background(), "k", time.Minute)
	require.NoError(t, err)
}

func TestS3Backend_PutObject(t *testing.T) {
	srv, reqs, _ := newFakeS3(t, http.StatusOK)

	backend, err := New(testConfig(srv.URL))
	require.NoError(t, err)
	defer backend.Close()

	err = backend.PutObject(context.Background(), "packs/fire_demon/idle.wav", []byte("RIFF"), "audio/wav")
	require.NoError(t, err)

	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodPut, (*reqs)[0].Method)
	assert.Equal(t, "/packs-bucket/packs/fire_demon/idle.wav", (*reqs)[0].Path)
	assert.Equal(t, "audio/wav", (*reqs)[0].ContentType)
}

func TestS3Backend_PutObjectRetriesThenFails(t *testing.T) {
	srv, _, count := newFakeS3(t, http.StatusServiceUnavailable)

	cfg := testConfig(srv.URL)
	cfg.MaxAttempts = 2
	backend, err := New(cfg)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.PutObject(context.Background(), "packs/x/a.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload to S3")
	assert.Equal(t, int32(2), atomic.LoadInt32(count))
}

func TestS3Backend_CustomCABundle(t *testing.T) {
	var puts int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&puts, 1)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, caPEM, 0o600))
	t.Setenv("AWS_CA_BUNDLE", caFile)

	backend, err := New(testConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Open(ctx))
	require.NotNil(t, backend.transport)
	require.NotNil(t, backend.transport.TLSClientConfig)
	assert.NotNil(t, backend.transport.TLSClientConfig.RootCAs)

	// the server certificate is trusted only through the bundle
	err = backend.PutObject(ctx, "packs/fire_demon/idle.wav", []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&puts))

	require.NoError(t, backend.Close())
	assert.Nil(t, backend.transport)
}
