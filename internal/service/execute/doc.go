// Package execute hands the verified artifact to a shell interpreter.
//
// The installer runs with the caller's full privileges and inherited
// standard streams; there is no sandboxing beyond the workspace directory.
// The installer's exit code is surfaced as-is through ExitError.
package execute
