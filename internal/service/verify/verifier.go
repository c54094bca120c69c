package verify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/instget/instget/internal/logger"
	"github.com/instget/instget/internal/service/fetch"
)

// ErrEmptyArtifact indicates the downloaded artifact is missing or has zero
// length. It aborts the run.
var ErrEmptyArtifact = errors.New("downloaded artifact is missing or empty")

// shebangPattern matches a first line invoking a shell interpreter,
// directly or through env.
var shebangPattern = regexp.MustCompile(`^#!\s*\S*/(?:env\s+)?(?:sh|bash|dash|zsh|ksh)\b`)

// Verify checks the artifact for emptiness and a plausible script header.
// Only the emptiness check is fatal; an unexpected first line is an
// advisory warning, not a security control.
func Verify(ctx context.Context, res *fetch.Result) error {
	info, err := os.Stat(res.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Path, ErrEmptyArtifact)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%s from %s: %w", res.Path, res.SourceURL, ErrEmptyArtifact)
	}

	firstLine, err := readFirstLine(res.Path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}

	if !shebangPattern.MatchString(firstLine) {
		logger.WarnKV(ctx, "Artifact does not start with a shell shebang, it may not be a script",
			"first_line", firstLine, "url", res.SourceURL)

		return nil
	}

	logger.DebugKV(ctx, "Artifact looks like a shell script", "first_line", firstLine)

	return nil
}

func readFirstLine(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	if scanner.Scan() {
		return scanner.Text(), nil
	}

	return "", scanner.Err()
}
