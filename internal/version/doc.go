// Package version exposes build metadata injected at build time via ldflags
// and attaches a `version` subcommand to the CLI. It also derives the
// identifying User-Agent string sent with every download request.
package version
