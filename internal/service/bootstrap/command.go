package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/instget/instget/internal/config"
	"github.com/instget/instget/internal/logger"
	"github.com/instget/instget/internal/service/execute"
	"github.com/instget/instget/internal/service/fetch"
	"github.com/instget/instget/internal/service/syscheck"
	"github.com/instget/instget/internal/service/verify"
)

// Options are inputs accepted by the bootstrap entry point.
type Options struct {
	// ConfigPath optionally overrides the shared configuration file location.
	ConfigPath string
	// DryRun stops the pipeline after verification without executing anything.
	DryRun bool
	// InstallerArgs are forwarded verbatim to the executed installer.
	InstallerArgs []string
}

// Run executes the full pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "instget")

	cfg, err := config.Resolve(ctx, opts.ConfigPath)
	if err != nil {
		logger.ErrorKV(ctx, "Configuration is invalid", "error", err)
		return fmt.Errorf("resolve configuration: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	r := &runner{cfg: cfg, opts: opts, tempRoot: os.TempDir()}

	if err = r.run(ctx); err != nil {
		var exitErr *execute.ExitError
		if errors.As(err, &exitErr) {
			logger.ErrorKV(ctx, "Installer failed", "exit_code", exitErr.Code)
		} else {
			logger.ErrorKV(ctx, "Bootstrap run failed", "error", err)
		}

		return err
	}

	logger.Info(ctx, "Bootstrap completed")

	return nil
}

// runner holds the state for a single bootstrap execution.
// It is intentionally unexported; callers go through Run.
type runner struct {
	cfg      *config.Config
	opts     *Options
	tempRoot string
}

// run walks the pipeline stages in order: sweep, workspace, requirements,
// fetch, verify, execute. Dry-run mode stops after verify.
func (r *runner) run(ctx context.Context) error {
	sweepStaleWorkspaces(ctx, r.tempRoot)

	ws, err := newWorkspace(r.tempRoot)
	if err != nil {
		return err
	}

	// The one invariant of the run: the workspace is removed on every exit
	// path, including fatal errors and signal-driven cancellation.
	defer ws.remove(ctx)

	if err = syscheck.NewChecker(r.cfg).Check(ctx); err != nil {
		return fmt.Errorf("system requirements: %w", err)
	}

	fetcher, err := fetch.NewFetcher(r.cfg)
	if err != nil {
		return err
	}

	result, err := fetcher.Fetch(ctx, ws.dir)
	if err != nil {
		return fmt.Errorf("download installer: %w", err)
	}

	if err = verify.Verify(ctx, result); err != nil {
		return fmt.Errorf("verify installer: %w", err)
	}

	if r.opts.DryRun {
		// Report the artifact location while it still exists; the deferred
		// cleanup removes it as the run ends.
		logger.InfoKV(ctx, "Dry run complete, execution skipped",
			"artifact", result.Path, "size", result.Size, "source_url", result.SourceURL)

		return nil
	}

	return execute.Run(ctx, result, r.opts.InstallerArgs)
}
