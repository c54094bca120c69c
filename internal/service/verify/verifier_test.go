package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/instget/instget/internal/service/fetch"
)

func artifact(t *testing.T, contents string) *fetch.Result {
	t.Helper()

	path := filepath.Join(t.TempDir(), fetch.ArtifactFilename)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return &fetch.Result{Path: path, Size: int64(len(contents)), SourceURL: "https://example.com/install.sh"}
}

// TestVerifyEmptyArtifact covers the fatal missing and zero-length cases.
func TestVerifyEmptyArtifact(t *testing.T) {
	t.Parallel()

	missing := &fetch.Result{Path: filepath.Join(t.TempDir(), "absent"), SourceURL: "https://example.com"}
	require.ErrorIs(t, Verify(context.Background(), missing), ErrEmptyArtifact)

	require.ErrorIs(t, Verify(context.Background(), artifact(t, "")), ErrEmptyArtifact)
}

// TestVerifyShebangAccepted checks common shell interpreter headers.
func TestVerifyShebangAccepted(t *testing.T) {
	t.Parallel()

	headers := []string{
		"#!/bin/sh\necho ok\n",
		"#!/bin/bash\n",
		"#!/usr/bin/env bash\n",
		"#! /bin/dash\n",
		"#!/usr/local/bin/zsh\n",
	}
	for _, contents := range headers {
		require.NoError(t, Verify(context.Background(), artifact(t, contents)), contents)
	}
}

// TestVerifyMissingShebangWarnsOnly ensures a non-script header never blocks execution.
func TestVerifyMissingShebangWarnsOnly(t *testing.T) {
	t.Parallel()

	nonScripts := []string{
		"# not a shebang\necho hi\n",
		"#!/usr/bin/python3\nprint('hi')\n",
		"<html>404</html>\n",
	}
	for _, contents := range nonScripts {
		require.NoError(t, Verify(context.Background(), artifact(t, contents)), contents)
	}
}
