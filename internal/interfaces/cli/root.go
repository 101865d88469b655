package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lite-lake/wildcert/internal/infrastructure/logger"
)

var Version = "dev"

func newRootCommand(app *App) *cobra.Command {
	opts := app.opts
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "wildcert",
		Short: "Wildcard certificate automation for Cloudflare DNS",
		Long: "Wildcert obtains, renews and distributes Let's Encrypt wildcard certificates\n" +
			"through certbot and the Cloudflare DNS-01 challenge.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose && app.logConfig != nil {
				app.logConfig.Level = slog.LevelDebug
				logger.Init(app.logConfig)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(app.out, Version)
				return nil
			}
			if !opts.HasAction() {
				return cmd.Help()
			}
			app.exitCode = app.Run(cmd.Context())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", opts.ConfigFile, "Path to the configuration file")
	flags.BoolVar(&opts.Install, "install", false, "Install certbot and the Cloudflare DNS plugin")
	flags.BoolVar(&opts.Generate, "generate", false, "Obtain missing certificates and renew expiring ones")
	flags.BoolVar(&opts.Copy, "copy", false, "Copy certificates to the output directory")
	flags.BoolVar(&opts.Renew, "renew", false, "Renew certificates expiring within 30 days")
	flags.BoolVar(&opts.Init, "init", false, "Write a configuration template")
	flags.BoolVar(&opts.Status, "status", false, "Show expiry and names of the live certificates")
	flags.BoolVar(&opts.Staging, "staging", false, "Use the Let's Encrypt staging server")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&showVersion, "version", false, "Show version information")

	cmd.SetOut(app.out)
	cmd.SetErr(app.errOut)
	return cmd
}

// Execute runs the command line and returns the process exit code. SIGINT
// and SIGTERM cancel the run; running certbot children are killed and the
// credential file is still removed.
func Execute(logCfg *logger.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(logCfg)
	if err := newRootCommand(app).ExecuteContext(ctx); err != nil {
		printError(app.errOut, "%v", err)
		return ExitFatal
	}
	return app.exitCode
}
