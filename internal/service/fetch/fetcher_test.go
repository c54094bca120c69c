package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/instget/instget/internal/config"
)

const testScript = "#!/bin/sh\necho hello\n"

func testConfig(primary, backup string) *config.Config {
	cfg := config.Defaults()
	cfg.InstallURL = primary
	cfg.BackupURL = backup
	cfg.NetworkRetries = 1
	cfg.DownloadTimeout = 5
	cfg.ConnectTimeout = 5

	return cfg
}

func newTestFetcher(t *testing.T, cfg *config.Config) *Fetcher {
	t.Helper()

	f, err := NewFetcher(cfg)
	require.NoError(t, err)

	// Keep retry pauses out of test time.
	f.backoff = time.Millisecond

	return f
}

// TestFetchPrimarySuccess downloads from the primary URL and verifies the
// result fields and the identifying User-Agent header.
func TestFetchPrimarySuccess(t *testing.T) {
	t.Parallel()

	var userAgent atomic.Value

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.UserAgent())
		_, _ = w.Write([]byte(testScript))
	}))
	defer ts.Close()

	f := newTestFetcher(t, testConfig(ts.URL+"/install.sh", ""))

	res, err := f.Fetch(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ts.URL+"/install.sh", res.SourceURL)
	require.Equal(t, int64(len(testScript)), res.Size)

	contents, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Equal(t, testScript, string(contents))

	require.Contains(t, userAgent.Load(), "instget/")
}

// TestFetchFallbackToBackup exhausts retries against a failing primary and
// succeeds against the backup.
func TestFetchFallbackToBackup(t *testing.T) {
	t.Parallel()

	var primaryAttempts atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		primaryAttempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testScript))
	}))
	defer backup.Close()

	cfg := testConfig(primary.URL, backup.URL)
	cfg.NetworkRetries = 2

	f := newTestFetcher(t, cfg)

	res, err := f.Fetch(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, backup.URL, res.SourceURL)
	require.Equal(t, int32(2), primaryAttempts.Load())
}

// TestFetchBothFail reports ErrDownload naming both attempted URLs.
func TestFetchBothFail(t *testing.T) {
	t.Parallel()

	failing := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	primary := httptest.NewServer(failing)
	defer primary.Close()

	backup := httptest.NewServer(failing)
	defer backup.Close()

	f := newTestFetcher(t, testConfig(primary.URL, backup.URL))

	_, err := f.Fetch(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrDownload)
	require.Contains(t, err.Error(), primary.URL)
	require.Contains(t, err.Error(), backup.URL)
}

// TestFetchTerminalStatusNoRetry ensures a 404 fails the URL immediately.
func TestFetchTerminalStatusNoRetry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL, "")
	cfg.NetworkRetries = 3

	f := newTestFetcher(t, cfg)

	_, err := f.Fetch(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrDownload)
	require.Equal(t, int32(1), attempts.Load())
}

// TestFetchSizeLimit verifies the post-download size cap: an 11 MiB body
// with a 10M limit fails, a 9 MiB body passes.
func TestFetchSizeLimit(t *testing.T) {
	t.Parallel()

	const mib = 1 << 20

	var bodySize atomic.Int64

	bodySize.Store(11 * mib)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{'#'}, int(bodySize.Load())))
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL, "")
	cfg.MaxDownloadSize = "10M"

	f := newTestFetcher(t, cfg)

	_, err := f.Fetch(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrDownloadTooLarge)

	bodySize.Store(9 * mib)

	res, err := newTestFetcher(t, cfg).Fetch(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, int64(9*mib), res.Size)
}

// TestFetchInsecureTLS verifies the verification toggle against a
// self-signed server certificate.
func TestFetchInsecureTLS(t *testing.T) {
	t.Parallel()

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testScript))
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL, "")

	f := newTestFetcher(t, cfg)
	_, err := f.Fetch(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrDownload)

	cfg.VerifySSL = false

	res, err := newTestFetcher(t, cfg).Fetch(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, int64(len(testScript)), res.Size)
}
