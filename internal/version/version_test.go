package version

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short, Banner and Full return consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Equal(t, ProductName+" v"+Short(), Banner())
}

// TestAttachCobraVersionCommand runs the attached subcommand and checks its output.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "tpi"}
	AttachCobraVersionCommand(root, func(w io.Writer, line string) {
		_, _ = fmt.Fprintln(w, line)
	})

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version", "--verbose"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), Banner())
	require.Contains(t, out.String(), "commit: ")
}
