package execute

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/instget/instget/internal/logger"
	"github.com/instget/instget/internal/service/fetch"
)

const (
	// interpreter runs the artifact regardless of its execute bit.
	interpreter = "/bin/sh"

	// artifactMode marks the artifact runnable before execution.
	artifactMode os.FileMode = 0o755
)

// ExitError carries the installer's own exit code. It is propagated as-is,
// never reinterpreted as a pipeline failure.
type ExitError struct {
	// Code is the exit status reported by the installer process.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("installer exited with code %d", e.Code)
}

// Run marks the artifact runnable and executes it through the shell
// interpreter, forwarding the caller-supplied arguments verbatim.
func Run(ctx context.Context, res *fetch.Result, installerArgs []string) error {
	if err := os.Chmod(res.Path, artifactMode); err != nil {
		return fmt.Errorf("mark artifact runnable: %w", err)
	}

	logger.WarnKV(ctx, "Executing third-party installer with full privileges, instget does not sandbox it",
		"artifact", res.Path, "source_url", res.SourceURL, "args", installerArgs)

	args := append([]string{res.Path}, installerArgs...)

	cmd := exec.CommandContext(ctx, interpreter, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}

	if err != nil {
		return fmt.Errorf("run installer: %w", err)
	}

	logger.Info(ctx, "Installer finished successfully")

	return nil
}
