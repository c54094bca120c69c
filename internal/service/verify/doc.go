// Package verify performs light sanity checks on the downloaded artifact.
//
// A missing or empty artifact is fatal. The shebang sniff is a heuristic
// only: a payload starting with a comment or an unusual interpreter path is
// legitimate, so a mismatch warns without blocking execution.
package verify
