package pdu

import (
	"fmt"

	"github.com/OpenCHAMI/powerctl/pkg/driver"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/rs/zerolog/log"
)

// CollectConfig describes a PDU whose outlets should be queried.
type CollectConfig struct {
	Host        string
	Model       string
	Indexes     []string
	Credentials string
}

// Collect() queries the power state of every outlet of a PDU through the
// network driver. Outlets that fail to answer are reported as UNKNOWN and
// their errors returned alongside the inventory.
func Collect(config CollectConfig, opts ...driver.Option) (*PDUInventory, []error) {
	inventory := &PDUInventory{Hostname: config.Host, Model: config.Model}
	var errs []error

	for _, index := range config.Indexes {
		port := power.Port{
			Name:        fmt.Sprintf("%s-%s", config.Host, index),
			Mode:        power.ModeNetwork,
			Model:       config.Model,
			Host:        config.Host,
			Index:       index,
			Credentials: config.Credentials,
		}
		outlet := PDUOutlet{ID: index, Name: port.Name, PowerState: StateUnknown}

		d, err := driver.New(port, opts...)
		if err != nil {
			// a bad model or host fails the same way for every outlet
			return nil, append(errs, err)
		}
		on, err := d.Get()
		switch {
		case err != nil:
			log.Warn().Err(err).Str("outlet", port.Name).Msg("failed to get outlet state")
			outlet.Error = err.Error()
			errs = append(errs, err)
		case on:
			outlet.PowerState = StateOn
		default:
			outlet.PowerState = StateOff
		}
		inventory.Outlets = append(inventory.Outlets, outlet)
	}
	return inventory, errs
}
