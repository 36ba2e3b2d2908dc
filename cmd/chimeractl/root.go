// root.go contains the chimeractl root command, its global flags and the
// setup every subcommand runs through.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-console-session/config"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"
)

// routeAnnotation names the console route a command stands for. The route
// guard decides whether the profile session may run it.
const routeAnnotation = "route"

var (
	profile string
	output  string
	apiURL  string
	dsn     string
	verbose bool
	version = "dev" // set via ldflags at build time

	app *cliApp
)

var rootCmd = &cobra.Command{
	Use:   "chimeractl",
	Short: "Console session from the terminal",
	Long: `chimeractl signs in to the console API and keeps the session in a
local store, one namespace per profile. Commands that read organization
data or insights need a signed in profile.`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	err := rootCmd.Execute()
	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Session profile, each profile keeps its own sign in")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format: yaml or json")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Console API base URL")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Local store DSN")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log session activity to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(orgsCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(routesCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var lgr *glog.BaseLogger
	if verbose {
		lgr = glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("chimeractl"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}

	container := gconfig.New(&config.BaseConfig{})
	if lgr != nil {
		container.WithLogger(lgr.GetLogger("config"))
	}
	if err := container.Load(ctx); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	cfg := container.Raw()
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := newCLIApp(ctx, cfg, lgr, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	app = a

	return app.authorize(cmd.Annotations[routeAnnotation])
}

// applyFlags lets command line flags win over configuration values
func applyFlags(cfg *config.BaseConfig) {
	if profile != "" {
		cfg.CLI.Profile = profile
	}
	if output != "" {
		cfg.CLI.Output = output
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if dsn != "" {
		cfg.Storage.DSN = dsn
	}
}
