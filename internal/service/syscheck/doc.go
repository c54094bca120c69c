// Package syscheck inspects the host before a download is attempted.
//
// Free disk space under the temporary-file root is a hard requirement:
// running out of space reliably breaks the download and execution stages.
// Available memory and OS identity are heuristic signals the installer may
// tolerate, so they only produce warnings.
package syscheck
