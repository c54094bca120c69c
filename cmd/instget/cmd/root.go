package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/instget/instget/internal/logger"
	"github.com/instget/instget/internal/service/bootstrap"
	"github.com/instget/instget/internal/service/execute"
	"github.com/instget/instget/internal/version"
)

// errConfigFlagNeedsValue is returned when --config is passed without a path.
var errConfigFlagNeedsValue = errors.New("--config requires a path argument")

// rootCmd scans its arguments manually instead of using flag parsing:
// recognized leading flags select the mode, and the first unrecognized
// token with everything after it is forwarded verbatim to the installer.
//
//nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
var rootCmd = &cobra.Command{
	Use:   "instget [--dry-run] [--config <path>] [installer arguments...]",
	Short: "Download a vendor installer script and run it",
	Long: `instget downloads a third-party installer script over HTTPS (with a
backup URL fallback), checks the host and the artifact, and executes the
script with any remaining arguments forwarded verbatim.

With --dry-run the pipeline stops after download and verification; the
artifact location is reported and nothing is executed.`,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, showHelp, err := parseRunArgs(args)
		if err != nil {
			logger.Error(context.Background(), err.Error())
			return err
		}

		if showHelp {
			// Help never creates a workspace or touches the network.
			return cmd.Help()
		}

		// Setup graceful shutdown handling; workspace cleanup still runs
		// when a signal cancels the pipeline.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return bootstrap.Run(ctx, opts)
	},
}

// parseRunArgs scans the leading mode flags. The first token that is not a
// recognized flag, and everything after it, belongs to the installer.
func parseRunArgs(args []string) (*bootstrap.Options, bool, error) {
	opts := new(bootstrap.Options)

	i := 0

scan:
	for ; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-h" || arg == "--help":
			return nil, true, nil
		case arg == "--dry-run":
			opts.DryRun = true
		case arg == "--config":
			if i+1 >= len(args) {
				return nil, false, errConfigFlagNeedsValue
			}

			i++
			opts.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			opts.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--":
			i++
			break scan
		default:
			break scan
		}
	}

	opts.InstallerArgs = args[i:]

	return opts, false, nil
}

// Execute runs the instget CLI. Pipeline failures exit with code 1;
// the executed installer's own exit code is surfaced unchanged.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	attachConfigCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *execute.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}

		os.Exit(1)
	}
}
