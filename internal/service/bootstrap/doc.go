// Package bootstrap sequences the download-verify-execute pipeline.
//
// It resolves the configuration, owns the workspace lifecycle (a
// process-unique temporary directory, removed on every exit path), runs the
// host requirements check, downloads and verifies the installer, and either
// stops after verification (dry-run) or executes the installer with the
// forwarded arguments.
package bootstrap
