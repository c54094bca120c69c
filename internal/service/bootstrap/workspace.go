package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/instget/instget/internal/logger"
)

const (
	// workspacePrefix keys workspace directories by process identity.
	workspacePrefix = "instget-"

	// workspaceDirMode keeps the workspace private to the invoking user.
	workspaceDirMode os.FileMode = 0o700
)

// workspace is the process-scoped temporary directory holding the artifact.
type workspace struct {
	dir string
}

// newWorkspace creates the workspace directory under the temporary-file
// root. The name embeds the PID, so concurrent runs of different processes
// never collide.
func newWorkspace(tempRoot string) (*workspace, error) {
	dir := filepath.Join(tempRoot, workspacePrefix+strconv.Itoa(os.Getpid()))
	if err := os.MkdirAll(dir, workspaceDirMode); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}

	return &workspace{dir: dir}, nil
}

// remove deletes the workspace and everything in it. Failures are logged,
// not propagated: cleanup must never mask the run's own outcome.
func (w *workspace) remove(ctx context.Context) {
	if err := os.RemoveAll(w.dir); err != nil {
		logger.WarnKV(ctx, "Cannot remove workspace", "path", w.dir, "error", err)
		return
	}

	logger.DebugKV(ctx, "Workspace removed", "path", w.dir)
}

// WorkspaceDir returns the workspace path this process would use.
func WorkspaceDir() string {
	return filepath.Join(os.TempDir(), workspacePrefix+strconv.Itoa(os.Getpid()))
}

// sweepStaleWorkspaces removes workspaces left behind by instget processes
// that no longer exist (crash, SIGKILL). Best-effort: any failure here only
// warns.
func sweepStaleWorkspaces(ctx context.Context, tempRoot string) {
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		logger.WarnKV(ctx, "Cannot scan temp root for stale workspaces", "path", tempRoot, "error", err)
		return
	}

	self := os.Getpid()

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}

		pid, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), workspacePrefix))
		if err != nil || pid == self {
			continue
		}

		process, err := ps.FindProcess(pid)
		if err != nil {
			logger.WarnKV(ctx, "Cannot inspect process, keeping workspace", "pid", pid, "error", err)
			continue
		}

		if process != nil {
			// The owning process is still alive.
			continue
		}

		path := filepath.Join(tempRoot, entry.Name())
		if err = os.RemoveAll(path); err != nil {
			logger.WarnKV(ctx, "Cannot remove stale workspace", "path", path, "error", err)
			continue
		}

		logger.InfoKV(ctx, "Removed stale workspace left by a dead process", "path", path, "pid", pid)
	}
}
