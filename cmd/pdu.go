package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/OpenCHAMI/powerctl/internal/format"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/spf13/cobra"
)

var pduFormat format.DataFormat = format.FORMAT_LIST

var PduCmd = &cobra.Command{
	Use:   "pdu",
	Short: "Perform actions on Power Distribution Units (PDUs)",
	Long:  `A collection of commands to inspect the network power backends and the PDUs they drive.`,
}

var pduModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the registered network power backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backends := power.Backends()
		if pduFormat != format.FORMAT_LIST {
			b, err := format.Marshal(backends, pduFormat)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tADDRESSING\tDEFAULT PORT\tDESCRIPTION")
		for _, b := range backends {
			port := "-"
			if b.DefaultPort > 0 {
				port = fmt.Sprint(b.DefaultPort)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Model, b.Family, port, b.Description)
		}
		return w.Flush()
	},
}

func init() {
	PduCmd.PersistentFlags().VarP(&pduFormat, "format", "F", "Set the output format (list|json|yaml)")
	PduCmd.AddCommand(pduModelsCmd)
	rootCmd.AddCommand(PduCmd)
}
