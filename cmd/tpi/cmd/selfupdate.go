package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tpi/internal/service/selfupdate"
)

func (a *app) newSelfUpdateCommand() *cobra.Command {
	var opts selfupdate.Options

	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update tpi itself",
		Long: "Run the published installer script for this platform. With --binary, download " +
			"a build, verify it against --checksum and replace the running executable.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			opts.InstallerURL = cfg.InstallerURL

			updater := selfupdate.New(a.newRunner(cfg), a.printer, a.httpClient(cfg))

			return updater.Run(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.BinaryURL, "binary", "", "URL of a tpi build to install in place")
	cmd.Flags().StringVar(&opts.Checksum, "checksum", "", "hex SHA-256 of the build at --binary")

	return cmd
}
