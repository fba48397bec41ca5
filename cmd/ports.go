package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	powerctl "github.com/OpenCHAMI/powerctl/internal"
	"github.com/OpenCHAMI/powerctl/internal/cache/sqlite"
	"github.com/OpenCHAMI/powerctl/internal/format"
	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	newPort     power.Port
	portsFormat format.DataFormat = format.FORMAT_LIST
)

// The `ports` command manages the port descriptors kept in the cache
// database so they can be switched by name without a ports file.
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Manage cached port descriptors",
}

var portsAddCmd = &cobra.Command{
	Use: "add [--file ports.yaml | --name NAME ...]",
	Example: `  // external relay tool
  powerctl ports add --name dut0 --cmd-on "relayctl 3 on" --cmd-off "relayctl 3 off"
  // REST PDU outlet
  powerctl ports add --name dut1 --model rest --host "http://pdu.lab/outlets/{index}" --index 4
  // import a ports file
  powerctl ports add --file ports.yaml`,
	Short: "Add or replace ports in the cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var ports []power.Port
		if path := viper.GetString("ports.add.file"); path != "" {
			loaded, err := powerctl.LoadPorts(path)
			if err != nil {
				return err
			}
			ports = loaded
		} else {
			ports = []power.Port{newPort}
		}
		if err := sqlite.New(viper.GetString("cache")).Insert(ports...); err != nil {
			return fmt.Errorf("failed to add ports: %w", err)
		}
		log.Info().Int("count", len(ports)).Str("cache", viper.GetString("cache")).Msg("added ports")
		return nil
	},
}

var portsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known ports from the ports file and the cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := loadPorts()
		if err != nil {
			return err
		}
		if portsFormat == format.FORMAT_LIST {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tMODEL\tHOST\tINDEX")
			for _, p := range ports {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.ResolvedMode(), p.Model, p.Host, p.ResolvedIndex())
			}
			return w.Flush()
		}
		b, err := format.Marshal(ports, portsFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var portsRemoveCmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove ports from the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sqlite.New(viper.GetString("cache")).Delete(args...)
	},
}

// loadPorts() merges the ports file, if any, with the cache. A port in the
// ports file replaces a cached port of the same name.
func loadPorts() ([]power.Port, error) {
	byName := map[string]power.Port{}

	cachePath := viper.GetString("cache")
	if _, exists := util.PathExists(cachePath); exists {
		cached, err := sqlite.New(cachePath).Get()
		if err != nil {
			return nil, err
		}
		for _, p := range cached {
			byName[p.Name] = p
		}
	}
	if path := viper.GetString("ports-file"); path != "" {
		loaded, err := powerctl.LoadPorts(path)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			byName[p.Name] = p
		}
	}

	ports := make([]power.Port, 0, len(byName))
	for _, p := range byName {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

func init() {
	flags := portsAddCmd.Flags()
	flags.StringVar(&newPort.Name, "name", "", "Set the port name")
	flags.StringVar((*string)(&newPort.Mode), "mode", "", "Set the mode (manual|external|network), inferred when empty")
	flags.StringVar(&newPort.Model, "model", "", "Set the network backend model (see 'powerctl pdu models')")
	flags.StringVar(&newPort.Host, "host", "", "Set the host or URL template ({index} is replaced)")
	flags.StringVar(&newPort.Index, "index", "", "Set the outlet index")
	flags.StringVar(&newPort.CmdOn, "cmd-on", "", "Set the command that switches the port on")
	flags.StringVar(&newPort.CmdOff, "cmd-off", "", "Set the command that switches the port off")
	flags.StringVar(&newPort.CmdCycle, "cmd-cycle", "", "Set the command that power cycles the port")
	flags.DurationVar(&newPort.Delay, "delay", power.DefaultDelay, "Set the delay between off and on when cycling")
	flags.StringVar(&newPort.Credentials, "credentials", "", "Set the secret id holding the PDU credentials")
	addFlag("ports.add.file", portsAddCmd, "file", "f", "", "Import ports from a YAML or JSON file")
	portsAddCmd.MarkFlagsMutuallyExclusive("file", "name")

	portsListCmd.Flags().VarP(&portsFormat, "format", "F", "Set the output format (list|json|yaml)")

	portsCmd.AddCommand(portsAddCmd, portsListCmd, portsRemoveCmd)
	rootCmd.AddCommand(portsCmd)
}

