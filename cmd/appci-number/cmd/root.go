package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/appci-number/internal/config"
	"github.com/oshokin/appci-number/internal/logger"
	"github.com/oshokin/appci-number/internal/version"
)

// app is shared by every subcommand. The root PersistentPreRunE fills settings.
type app struct {
	// stdout receives command results.
	stdout io.Writer
	// stderr receives logs.
	stderr io.Writer
	// env resolves credential environment variables.
	env config.LookupFunc

	// configPath stores the path to the settings YAML file.
	configPath string
	// logLevel is the minimum level of log messages.
	logLevel string
	// settings holds the loaded settings file.
	settings *config.Config
}

// newRootCmd builds the command tree writing results to stdout and logs to stderr.
func newRootCmd(stdout, stderr io.Writer, env config.LookupFunc) *cobra.Command {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		env:    env,
	}

	rootCmd := &cobra.Command{
		Use:   "appci-number",
		Short: "Resolve the latest mobile build number for CI.",
		Long: `Query App Store Connect or the Google Play Console for the latest build
number of an app, optionally increment it and write it into an Expo app.json.

The resolved number is printed on stdout; logs and errors go to stderr.
Credentials come from flags, environment variables or the settings file,
in that order.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}

	// Setup persistent flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newExpoCmd(),
		newAppleCmd(a),
		newAndroidCmd(a),
	)

	return rootCmd
}

// prepare applies the log level, attaches the stderr logger and loads settings.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(a.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", a.logLevel)
	}

	logger.SetLevel(level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(logger.ToContext(ctx, logger.New(nil, a.stderr)))

	settings, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	a.settings = settings

	return nil
}

// Execute runs the appci-number CLI and exits with non-zero status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	rootCmd := newRootCmd(os.Stdout, os.Stderr, os.LookupEnv)
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.ErrorKV(ctx, "Command failed", "error", err)
		os.Exit(1)
	}
}
