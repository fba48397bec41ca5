package cmd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	powerctl "github.com/OpenCHAMI/powerctl/internal"
	"github.com/OpenCHAMI/powerctl/internal/format"
	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/cznic/mathutil"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var powerFormat format.DataFormat = format.FORMAT_LIST

// PortResult is the outcome of one action on one port.
type PortResult struct {
	Port   string        `json:"port"            yaml:"port"`
	Action string        `json:"action"          yaml:"action"`
	State  string        `json:"state,omitempty" yaml:"state,omitempty"`
	Took   time.Duration `json:"took"            yaml:"took"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// The `power` command switches or queries one or more ports by name.
var powerCmd = &cobra.Command{
	Use: "power",
	Example: `  // switch a port on
  powerctl power on dut0
  // power cycle several ports, four at a time
  powerctl power cycle -j 4 dut0 dut1 dut2
  // query the state of a PDU outlet as JSON
  powerctl power get -F json pdu0-3`,
	Short: "Switch ports on, off, cycle them or query their state",
}

func newPowerActionCmd(action string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <port>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := selectPorts(args)
			if err != nil {
				return err
			}
			factory, err := newDriverFactory()
			if err != nil {
				return err
			}
			results := runConcurrently(concurrency(len(ports)), ports, func(port power.Port) PortResult {
				return act(factory, port, action)
			})
			if err := printResults(cmd, results); err != nil {
				return err
			}

			var errs []error
			for _, r := range results {
				if r.Error != "" {
					errs = append(errs, fmt.Errorf("%s: %s", r.Port, r.Error))
				}
			}
			if util.HasErrors(errs) {
				return fmt.Errorf("%d of %d ports failed:\n%w", len(errs), len(results), util.FormatErrorList(errs))
			}
			return nil
		},
	}
}

func selectPorts(names []string) ([]power.Port, error) {
	known, err := loadPorts()
	if err != nil {
		return nil, err
	}
	ports := make([]power.Port, 0, len(names))
	for _, name := range names {
		port, found := powerctl.FindPort(known, name)
		if !found {
			return nil, fmt.Errorf("port '%s' not found in the ports file or cache", name)
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func act(factory *driverFactory, port power.Port, action string) PortResult {
	var (
		result = PortResult{Port: port.Name, Action: action}
		logger = log.With().Str("op", uuid.NewString()).Str("port", port.Name).Str("action", action).Logger()
		start  = time.Now()
		err    error
	)

	d, err := factory.build(port)
	if err == nil {
		logger.Debug().Msg("power operation started")
		switch action {
		case "on":
			err = d.On()
		case "off":
			err = d.Off()
		case "cycle":
			err = d.Cycle()
		case "get":
			var on bool
			if on, err = d.Get(); err == nil {
				result.State = stateName(on)
			}
		}
	}
	result.Took = time.Since(start)

	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			err = fmt.Errorf("%s is not supported for %s ports", action, port.ResolvedMode())
		}
		logger.Error().Err(err).Msg("power operation failed")
		result.Error = err.Error()
		return result
	}
	logger.Info().Dur("took", result.Took).Msg("power operation finished")
	return result
}

// concurrency returns the worker count for n ports.
func concurrency(n int) int {
	workers := viper.GetInt("concurrency")
	if workers <= 0 {
		workers = n
	}
	return mathutil.Clamp(workers, 1, mathutil.Max(n, 1))
}

// runConcurrently() runs fn for every port with a bounded number of
// workers. Each port is handled by exactly one worker so a driver never
// sees two calls at once. Results keep the order of ports.
func runConcurrently(workers int, ports []power.Port, fn func(power.Port) PortResult) []PortResult {
	var (
		results = make([]PortResult, len(ports))
		jobs    = make(chan int)
		wg      sync.WaitGroup
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j] = fn(ports[j])
			}
		}()
	}
	for i := range ports {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func stateName(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func printResults(cmd *cobra.Command, results []PortResult) error {
	if powerFormat != format.FORMAT_LIST {
		b, err := format.Marshal(results, powerFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		var status string
		switch {
		case r.Error != "":
			status = color.YellowString("failed")
		case r.State == "on":
			status = color.GreenString("on")
		case r.State == "off":
			status = color.RedString("off")
		default:
			status = color.GreenString("ok")
		}
		fmt.Fprintf(out, "%s:\t%s\n", r.Port, status)
	}
	return nil
}

func init() {
	powerCmd.PersistentFlags().VarP(&powerFormat, "format", "F", "Set the output format (list|json|yaml)")
	powerCmd.AddCommand(
		newPowerActionCmd("on", "Switch ports on"),
		newPowerActionCmd("off", "Switch ports off"),
		newPowerActionCmd("cycle", "Power cycle ports"),
		newPowerActionCmd("get", "Query the power state of ports"),
	)
	rootCmd.AddCommand(powerCmd)
}
