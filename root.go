package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/filesync/internal/location"
	"github.com/tonimelisma/filesync/internal/syncengine"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagLogLevel string
)

// newRootCmd builds and returns the fully-assembled root command. Called
// once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filesync <descriptor> [<descriptor> ...]",
		Short:   "Multi-backend file synchronization daemon",
		Long:    "Keeps folders, FTP directories, and zip archives converged on the same files, forever.",
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runSync,
	}

	cmd.PersistentFlags().StringVarP(&flagLogLevel, "log-level", "v", "info", "log level: debug, info, warn, error")

	return cmd
}

// runSync parses every positional argument as a location descriptor and
// runs the reconciliation driver until the process is killed.
func runSync(cmd *cobra.Command, args []string) error {
	logger := buildLogger(flagLogLevel)

	locations := make([]location.Location, 0, len(args))

	for _, descriptor := range args {
		loc, err := location.Parse(descriptor, logger)
		if err != nil {
			return fmt.Errorf("parsing descriptor %q: %w", descriptor, err)
		}

		locations = append(locations, loc)

		logger.Info("registered location", "descriptor", descriptor, "kind", loc.Kind().String())
	}

	return syncengine.Run(context.Background(), locations, logger)
}

// buildLogger creates an slog.Logger at the level named by levelName,
// defaulting to Info on an unrecognized name.
func buildLogger(levelName string) *slog.Logger {
	level := slog.LevelInfo

	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
