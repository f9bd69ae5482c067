package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raysh454/policeform/internal/app"
	"github.com/raysh454/policeform/internal/logging"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// NewRootCommand builds the command tree. Output goes to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "policeform",
		Short:         "Submits tenant verification forms to the Rajasthan Police portal.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML); environment variables override it")

	root.AddCommand(newServeCommand(&cfgFile), newProbeCommand(&cfgFile), newVersionCommand())
	return root
}

func newServeCommand(cfgFile *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(*cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			logger := logging.NewZapLogger(cfg.Logging)
			defer func() { _ = logger.Sync() }()

			a, err := app.NewApplication(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting policeform",
				logging.Field{Key: "version", Value: Version},
				logging.Field{Key: "addr", Value: cfg.Server.Addr},
				logging.Field{Key: "headless", Value: cfg.Browser.Chrome.Headless})
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func newProbeCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Launch one browser to check that Chrome works, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(*cfgFile)
			if err != nil {
				return err
			}
			cfg.History.Enabled = false

			logger := logging.NewZapLogger(cfg.Logging)
			defer func() { _ = logger.Sync() }()

			a, err := app.NewApplication(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Probe(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "browser unavailable: %v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "browser ready")
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
