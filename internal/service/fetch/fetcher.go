package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/instget/instget/internal/config"
	"github.com/instget/instget/internal/logger"
	"github.com/instget/instget/internal/version"
)

const (
	// ArtifactFilename is the fixed name of the downloaded script inside the workspace.
	ArtifactFilename = "install.sh"

	// retryBackoff is the fixed pause between attempts against the same URL.
	retryBackoff = 1 * time.Second

	// artifactFileMode keeps the artifact private until execution marks it runnable.
	artifactFileMode os.FileMode = 0o600
)

var (
	// ErrDownload indicates that every attempted URL failed. It aborts the run.
	ErrDownload = errors.New("download failed")

	// ErrDownloadTooLarge indicates the fetched artifact exceeds the
	// configured size cap. It aborts the run.
	ErrDownloadTooLarge = errors.New("downloaded artifact exceeds size limit")
)

// Result describes a completed download.
type Result struct {
	// Path is the artifact location inside the workspace.
	Path string
	// Size is the artifact's byte size as reported by the filesystem.
	Size int64
	// SourceURL is the URL the artifact was actually fetched from.
	SourceURL string
}

// Fetcher downloads the installer according to one resolved configuration.
type Fetcher struct {
	cfg      *config.Config
	client   *http.Client
	maxBytes int64
	backoff  time.Duration
}

// NewFetcher builds a fetcher with an HTTP client honoring the configured
// timeouts and TLS-verification toggle.
func NewFetcher(cfg *config.Config) (*Fetcher, error) {
	maxBytes, err := cfg.MaxDownloadBytes()
	if err != nil {
		return nil, fmt.Errorf("size limit: %w", err)
	}

	dialer := &net.Dialer{Timeout: time.Duration(cfg.ConnectTimeout) * time.Second}

	//nolint:exhaustruct // Zero values are intended for the remaining transport knobs.
	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,
	}

	if !cfg.VerifySSL {
		//nolint:gosec // Disabling verification is an explicit, loudly warned configuration choice.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   time.Duration(cfg.DownloadTimeout) * time.Second,
			Transport: transport,
		},
		maxBytes: maxBytes,
		backoff:  retryBackoff,
	}, nil
}

// Fetch downloads the installer into the workspace directory and returns
// the artifact description. The primary URL is tried first; the backup URL,
// when configured, gets one fallback pass with the same per-URL policy.
func (f *Fetcher) Fetch(ctx context.Context, workspaceDir string) (*Result, error) {
	if !f.cfg.VerifySSL {
		logger.Warn(ctx, "TLS certificate verification is DISABLED, the download is not authenticated")
	}

	path := filepath.Join(workspaceDir, ArtifactFilename)

	urls := []string{f.cfg.InstallURL}
	if f.cfg.BackupURL != "" {
		urls = append(urls, f.cfg.BackupURL)
	}

	attempted := make([]string, 0, len(urls))

	for i, rawURL := range urls {
		if i > 0 {
			logger.WarnKV(ctx, "Primary URL failed, trying backup", "backup_url", rawURL)
		}

		if err := f.fetchURL(ctx, rawURL, path); err != nil {
			attempted = append(attempted, fmt.Sprintf("%s (%v)", rawURL, err))
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat artifact: %w", err)
		}

		if info.Size() > f.maxBytes {
			return nil, fmt.Errorf("%d bytes from %s, limit is %s: %w",
				info.Size(), rawURL, f.cfg.MaxDownloadSize, ErrDownloadTooLarge)
		}

		logger.InfoKV(ctx, "Downloaded installer",
			"url", rawURL, "path", path, "size", info.Size())

		return &Result{Path: path, Size: info.Size(), SourceURL: rawURL}, nil
	}

	return nil, fmt.Errorf("%s: %w", strings.Join(attempted, "; "), ErrDownload)
}

// fetchURL runs the bounded retry loop for one URL.
func (f *Fetcher) fetchURL(ctx context.Context, rawURL, path string) error {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.NetworkRetries; attempt++ {
		if attempt > 1 {
			logger.WarnKV(ctx, "Retrying download",
				"url", rawURL, "attempt", attempt, "error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.backoff):
			}
		}

		lastErr = f.attempt(ctx, rawURL, path)
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// attempt performs a single request and writes the body to the artifact
// path, truncating any previous attempt's output.
func (f *Fetcher) attempt(ctx context.Context, rawURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &statusError{status: resp.Status, code: resp.StatusCode}
	}

	out, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	// The copy is bounded to one byte over the cap so a grossly oversized
	// transfer stops early; the stat-based check in Fetch stays authoritative.
	_, err = io.Copy(out, io.LimitReader(resp.Body, f.maxBytes+1))

	closeErr := out.Close()

	if err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("close artifact: %w", closeErr)
	}

	return nil
}

// statusError marks a terminal non-2xx response.
type statusError struct {
	status string
	code   int
}

func (e *statusError) Error() string {
	return "unexpected http status " + e.status
}

// isRetryable treats transport failures and 5xx responses as transient;
// other HTTP statuses fail the URL immediately.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}

	return true
}
