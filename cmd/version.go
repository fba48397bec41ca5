package cmd

import (
	"fmt"

	"github.com/OpenCHAMI/powerctl/internal/format"
	"github.com/OpenCHAMI/powerctl/internal/version"
	"github.com/spf13/cobra"
)

var versionFormat format.DataFormat = format.FORMAT_LIST

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionFormat == format.FORMAT_LIST {
			version.PrintVersionInfo()
			return nil
		}
		b, err := format.Marshal(version.Get(), versionFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	versionCmd.Flags().VarP(&versionFormat, "format", "F", "Set the output format (list|json|yaml)")
	rootCmd.AddCommand(versionCmd)
}
