package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridden with -ldflags "-X github.com/khanhnv2901/cyberaudit/cmd.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		detailed, _ := cmd.Flags().GetBool("verbose")
		return writeVersion(cmd.OutOrStdout(), detailed)
	},
}

func writeVersion(w io.Writer, detailed bool) error {
	if !detailed {
		_, err := fmt.Fprintf(w, "cyberaudit %s\n", Version)
		return err
	}
	_, err := fmt.Fprintf(w, `cyberaudit %s
  Git commit: %s
  Built:      %s
  Go:         %s %s/%s
`, Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Show build details")
}
