package version

import (
	"io"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// printLine renders a line to the command output; the banner comes first, then the
// build details when --verbose is set.
func AttachCobraVersionCommand(root *cobra.Command, printLine func(w io.Writer, line string)) {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Shows version of cli",
		Long:  "Print the tpi version. With --verbose the commit hash and build timestamp injected at build time are printed too.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printLine(cmd.OutOrStdout(), Banner())

			if verbose {
				printLine(cmd.OutOrStdout(), Full())
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include commit and build time")

	root.AddCommand(cmd)
}
