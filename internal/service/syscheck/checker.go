package syscheck

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/instget/instget/internal/config"
	"github.com/instget/instget/internal/logger"
)

const (
	defaultMeminfoPath   = "/proc/meminfo"
	defaultOSReleasePath = "/etc/os-release"

	mib = 1 << 20
)

// ErrInsufficientDisk indicates that free space under the temporary-file
// root is below the configured minimum. It aborts the run.
var ErrInsufficientDisk = errors.New("not enough free disk space")

// Checker runs the host compatibility checks against one resolved configuration.
type Checker struct {
	cfg *config.Config

	// Probes are swappable so tests can run against fixture files.
	tempRoot      string
	freeDiskBytes func(path string) (int64, error)
	meminfoPath   string
	osReleasePath string
}

// NewChecker creates a checker with the real host probes.
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		cfg:           cfg,
		tempRoot:      os.TempDir(),
		freeDiskBytes: freeDiskBytes,
		meminfoPath:   defaultMeminfoPath,
		osReleasePath: defaultOSReleasePath,
	}
}

// Check runs the disk, RAM and OS checks. Only the disk check can fail the
// run; everything else surfaces as warnings. The whole check is skipped
// when disabled in the configuration.
func (c *Checker) Check(ctx context.Context) error {
	if !c.cfg.CheckSystemCompatibility {
		logger.Debug(ctx, "System compatibility check is disabled, skipping")
		return nil
	}

	if err := c.checkDisk(ctx); err != nil {
		return err
	}

	c.checkRAM(ctx)
	c.checkOS(ctx)

	return nil
}

// checkDisk enforces the free-space minimum under the temporary-file root.
func (c *Checker) checkDisk(ctx context.Context) error {
	free, err := c.freeDiskBytes(c.tempRoot)
	if err != nil {
		logger.WarnKV(ctx, "Cannot determine free disk space, skipping disk check",
			"path", c.tempRoot, "error", err)

		return nil
	}

	required := c.cfg.MinDiskSpaceMB * mib
	if free < required {
		return fmt.Errorf("%d MB free under %s, %d MB required: %w",
			free/mib, c.tempRoot, c.cfg.MinDiskSpaceMB, ErrInsufficientDisk)
	}

	logger.DebugKV(ctx, "Disk space check passed", "free_mb", free/mib, "required_mb", c.cfg.MinDiskSpaceMB)

	return nil
}

// checkRAM warns when available memory is below the configured minimum.
// The probe is best-effort: hosts without /proc/meminfo skip it.
func (c *Checker) checkRAM(ctx context.Context) {
	available, err := availableMemoryBytes(c.meminfoPath)
	if err != nil {
		logger.WarnKV(ctx, "Cannot determine available memory, skipping RAM check", "error", err)
		return
	}

	if available < c.cfg.MinRAMMB*mib {
		logger.WarnKV(ctx, "Available memory is below the recommended minimum",
			"available_mb", available/mib, "recommended_mb", c.cfg.MinRAMMB)

		return
	}

	logger.DebugKV(ctx, "Memory check passed", "available_mb", available/mib)
}

// checkOS compares the host OS identifier against the supported set.
func (c *Checker) checkOS(ctx context.Context) {
	id := c.osIdentifier()

	for _, supported := range c.cfg.SupportedOS {
		if strings.EqualFold(id, supported) {
			logger.InfoKV(ctx, "Operating system is supported", "os", id)
			return
		}
	}

	logger.WarnKV(ctx, "Operating system is not in the supported set, the installer may not work",
		"os", id, "supported", strings.Join(c.cfg.SupportedOS, " "))
}

// osIdentifier reads the ID field from os-release,
// falling back to the Go runtime OS name.
func (c *Checker) osIdentifier() string {
	file, err := os.Open(c.osReleasePath)
	if err != nil {
		return runtime.GOOS
	}

	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "ID=") {
			continue
		}

		return strings.Trim(strings.TrimPrefix(line, "ID="), `"`)
	}

	return runtime.GOOS
}

// freeDiskBytes returns the space available to unprivileged users on the
// filesystem containing path.
func freeDiskBytes(path string) (int64, error) {
	var stat unix.Statfs_t

	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	return int64(stat.Bavail) * int64(stat.Bsize), nil //nolint:unconvert // Field widths differ across platforms.
}

// availableMemoryBytes parses the MemAvailable line from a meminfo file.
func availableMemoryBytes(path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "MemAvailable:" {
			continue
		}

		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse MemAvailable: %w", err)
		}

		return kb << 10, nil
	}

	return 0, errors.New("MemAvailable not found")
}
