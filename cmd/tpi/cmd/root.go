package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/tpi/internal/config"
	"github.com/oshokin/tpi/internal/console"
	"github.com/oshokin/tpi/internal/fetcher"
	"github.com/oshokin/tpi/internal/logger"
	"github.com/oshokin/tpi/internal/repository/manifest"
	"github.com/oshokin/tpi/internal/runner"
	"github.com/oshokin/tpi/internal/service/installer"
	"github.com/oshokin/tpi/internal/version"
)

// helpTip is printed after the usage line whenever a command is incomplete.
const helpTip = "Use 'help' command for help!"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	// printer renders user-facing output.
	printer *console.Printer
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured diagnostic log level.
	logLevel string
	// cfg is loaded lazily by commands that need it.
	cfg *config.Config
}

// Execute runs the tpi CLI and exits with non-zero status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	printer := console.New(os.Stdout)
	err := NewRootCommand(printer).ExecuteContext(ctx)

	stop()

	if err != nil {
		printer.Fail(err.Error())
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree printing through printer.
func NewRootCommand(printer *console.Printer) *cobra.Command {
	a := &app{printer: printer}

	root := &cobra.Command{
		Use:           "tpi [command] [...args]",
		Short:         "Install, remove and upgrade packages described by descriptors",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(*cobra.Command, []string) {
			a.printUsageTip()
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(printer.Writer())

	// Setup command flags with consistent naming and descriptions.
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultConfigPath(), "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "diagnostic log level: debug, info, warn or error")

	root.SetHelpCommand(a.newHelpCommand())
	root.AddCommand(
		a.newInstallCommand(),
		a.newUninstallCommand(),
		a.newUpgradeCommand(),
		a.newListCommand(),
		a.newSelfUpdateCommand(),
	)

	version.AttachCobraVersionCommand(root, printer.HighlightTo)

	return root
}

// printUsageTip prints the synopsis and a pointer to help.
func (a *app) printUsageTip() {
	a.printer.Usage()
	a.printer.Tip(helpTip)
}

// loadConfig reads settings once. An explicit --config must exist; the default
// location may be absent.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	var (
		cfg *config.Config
		err error
	)

	if flag := cmd.Flag("config"); flag != nil && flag.Changed {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadOptional(a.configPath)
	}

	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel

		if err = config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	logger.DebugKV(cmd.Context(), "Configuration loaded",
		"registry", cfg.RegistryURL, "manifest", cfg.ManifestPath)

	a.cfg = cfg

	return cfg, nil
}

// httpClient returns the self-update download client honouring the configured timeout.
func (a *app) httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// newRunner creates the command runner for cfg.
func (a *app) newRunner(cfg *config.Config) *runner.Runner {
	return runner.New(a.printer, runner.WithShell(cfg.Shell))
}

// newInstaller wires the installer service from configuration.
func (a *app) newInstaller(cmd *cobra.Command) (*installer.Service, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return installer.New(installer.Dependencies{
		RegistryURL: cfg.RegistryURL,
		Fetcher:     fetcher.New(a.printer, fetcher.WithTimeout(cfg.Timeout)),
		Runner:      a.newRunner(cfg),
		Manifest:    manifest.NewFileRepository(cfg.ManifestPath),
		Printer:     a.printer,
	})
}
