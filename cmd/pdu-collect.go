package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OpenCHAMI/powerctl/internal/format"
	"github.com/OpenCHAMI/powerctl/pkg/driver"
	"github.com/OpenCHAMI/powerctl/pkg/pdu"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pduCollectCmd = &cobra.Command{
	Use: "collect <host>...",
	Example: `  // outlets 1-4 of a NETIO PDU
  powerctl pdu collect --model netio --index 1,2,3,4 10.0.0.5
  // SMD records, naming the PDU controller xname
  powerctl pdu collect --model rest --index 1,2 --smd x3000m0=http://pdu.lab/outlets/{index}`,
	Short: "Collect the outlet states of PDUs",
	Long:  "Queries the power state of each listed outlet through the network backend and prints a PDU inventory, or SMD component records with --smd.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := newDriverFactory()
		if err != nil {
			return err
		}
		var (
			smd     = viper.GetBool("pdu.collect.smd")
			records = make([]map[string]any, 0)
			inv     = make([]*pdu.PDUInventory, 0, len(args))
			errs    []error
		)

		if viper.GetString("pdu.collect.send") != "" && !smd {
			return fmt.Errorf("--send requires --smd")
		}

		for _, arg := range args {
			host, xname := arg, ""
			if smd {
				var ok bool
				if xname, host, ok = strings.Cut(arg, "="); !ok {
					return fmt.Errorf("expected <xname>=<host> with --smd, got '%s'", arg)
				}
			}
			log.Info().Str("host", host).Msg("collecting from PDU")
			inventory, collectErrs := pdu.Collect(pdu.CollectConfig{
				Host:        host,
				Model:       viper.GetString("pdu.collect.model"),
				Indexes:     viper.GetStringSlice("pdu.collect.index"),
				Credentials: viper.GetString("pdu.collect.credentials"),
			}, driver.WithSecretStore(factory.store), driver.WithBackendOptions(factory.backend))
			errs = append(errs, collectErrs...)
			if inventory == nil {
				continue
			}
			if !smd {
				inv = append(inv, inventory)
				continue
			}
			smdRecords, err := pdu.ToSMD(inventory, xname)
			if err != nil {
				return err
			}
			records = append(records, smdRecords...)
		}

		outFormat := pduFormat
		if outFormat == format.FORMAT_LIST {
			outFormat = format.FORMAT_JSON
		}
		var data any = inv
		if smd {
			data = records
		}
		b, err := format.Marshal(data, outFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))

		if smdURL := viper.GetString("pdu.collect.send"); smdURL != "" {
			if err := pdu.SendToSMD(factory.backend.Client, smdURL, viper.GetString("access-token"), records); err != nil {
				errs = append(errs, err)
			} else {
				log.Info().Int("records", len(records)).Str("smd", smdURL).Msg("sent records to SMD")
			}
		}
		return errors.Join(errs...)
	},
}

func init() {
	addFlag("pdu.collect.model", pduCollectCmd, "model", "m", "", "Set the network backend model of the PDUs")
	addFlag("pdu.collect.index", pduCollectCmd, "index", "n", []string{}, "Set the outlet indexes to query")
	addFlag("pdu.collect.credentials", pduCollectCmd, "credentials", "", "", "Set the secret id holding the PDU credentials")
	addFlag("pdu.collect.smd", pduCollectCmd, "smd", "", false, "Print SMD component endpoint records instead of inventories")
	addFlag("pdu.collect.send", pduCollectCmd, "send", "", "", "Post the SMD records to the SMD at this base URL (requires --smd)")
	addFlag("access-token", pduCollectCmd, "access-token", "", "", "Set the bearer token for SMD requests")
	checkBindFlagError(viper.BindEnv("access-token", "ACCESS_TOKEN"))
	checkBindFlagError(pduCollectCmd.MarkFlagRequired("model"))
	checkBindFlagError(pduCollectCmd.MarkFlagRequired("index"))

	PduCmd.AddCommand(pduCollectCmd)
}
