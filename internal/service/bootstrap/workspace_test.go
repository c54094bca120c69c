package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// stalePID is far above any realistic pid_max, so no live process owns it.
const stalePID = 99999999

// TestWorkspaceLifecycle creates and removes a workspace directory.
func TestWorkspaceLifecycle(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	ws, err := newWorkspace(root)
	require.NoError(t, err)
	require.DirExists(t, ws.dir)
	require.Equal(t, filepath.Join(root, workspacePrefix+strconv.Itoa(os.Getpid())), ws.dir)

	// Creation is idempotent.
	again, err := newWorkspace(root)
	require.NoError(t, err)
	require.Equal(t, ws.dir, again.dir)

	ws.remove(context.Background())
	require.NoDirExists(t, ws.dir)
}

// TestSweepStaleWorkspaces removes dirs owned by dead processes and keeps
// the live process's dir and unrelated entries.
func TestSweepStaleWorkspaces(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	stale := filepath.Join(root, workspacePrefix+strconv.Itoa(stalePID))
	require.NoError(t, os.MkdirAll(stale, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "install.sh"), []byte("#!/bin/sh\n"), 0o600))

	own := filepath.Join(root, workspacePrefix+strconv.Itoa(os.Getpid()))
	require.NoError(t, os.MkdirAll(own, 0o700))

	unrelated := filepath.Join(root, "instget-not-a-pid")
	require.NoError(t, os.MkdirAll(unrelated, 0o700))

	sweepStaleWorkspaces(context.Background(), root)

	require.NoDirExists(t, stale)
	require.DirExists(t, own)
	require.DirExists(t, unrelated)
}
