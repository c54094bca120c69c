// Package fetch downloads the installer script into the workspace.
//
// Each configured URL gets a bounded number of attempts with a short backoff;
// when every attempt against the primary URL fails, the backup URL (if any)
// gets one pass under the same policy. The artifact size is taken from the
// filesystem after the transfer, not from response headers, and is enforced
// against the configured cap.
package fetch
