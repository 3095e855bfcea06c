package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tpi/internal/console"
	"github.com/oshokin/tpi/internal/service/installer"
)

// helpEntries is the command table of the help screen.
//
//nolint:gochecknoglobals // Read-only table.
var helpEntries = []console.HelpEntry{
	{Usage: "install <package>", Description: "Install a package"},
	{Usage: "uninstall <package>", Description: "Uninstall a package"},
	{Usage: "upgrade", Description: "Upgrade packages"},
	{Usage: "list", Description: "List installed packages"},
	{Usage: "self-update", Description: "Update tpi itself"},
	{Usage: "help", Description: "Shows this screen"},
	{Usage: "version", Description: "Shows version of cli"},
}

func (a *app) newInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package",
		Long: "Install a package from the registry by name, from a descriptor URL, " +
			"or from a descriptor on disk (prefixed with ./, .\\ or /).",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				a.printUsageTip()
				return nil
			}

			service, err := a.newInstaller(cmd)
			if err != nil {
				return err
			}

			return service.Install(cmd.Context(), args[0])
		},
	}
}

func (a *app) newUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Uninstall a package",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				a.printUsageTip()
				return nil
			}

			service, err := a.newInstaller(cmd)
			if err != nil {
				return err
			}

			return service.Uninstall(cmd.Context(), args[0])
		},
	}
}

func (a *app) newUpgradeCommand() *cobra.Command {
	var opts installer.UpgradeOptions

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade packages",
		Long:  "Reinstall every package recorded in the manifest. The first failure stops the run unless --keep-going is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := a.newInstaller(cmd)
			if err != nil {
				return err
			}

			return service.Upgrade(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.KeepGoing, "keep-going", "k", false, "continue with the remaining packages after a failure")

	return cmd
}

func (a *app) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := a.newInstaller(cmd)
			if err != nil {
				return err
			}

			entries, err := service.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				a.printer.Info("No packages recorded in " + a.cfg.ManifestPath)
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.ID, e.Kind.String()})
			}

			a.printer.Table([]string{"PACKAGE", "SOURCE"}, rows)

			return nil
		},
	}
}

func (a *app) newHelpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Shows this screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if target, _, err := cmd.Root().Find(args); err == nil && target != cmd.Root() {
					return target.Help()
				}
			}

			a.printer.Usage()
			a.printer.Help(helpEntries)

			return nil
		},
	}
}
