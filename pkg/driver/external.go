package driver

import (
	"errors"
	"time"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/rs/zerolog/log"
)

// External switches a port by running the configured commands.
type External struct {
	port     power.Port
	spec     *CommandSpec
	executor Executor
	sleep    func(time.Duration)
}

func NewExternal(port power.Port, executor Executor, sleep func(time.Duration)) (*External, error) {
	spec, err := NewCommandSpec(port)
	if err != nil {
		return nil, err
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &External{port: port, spec: spec, executor: executor, sleep: sleep}, nil
}

func (d *External) On() error  { return d.run(d.spec.On) }
func (d *External) Off() error { return d.run(d.spec.Off) }

// Cycle runs cmd_cycle when configured, otherwise off, the port delay and
// on as two separate commands.
func (d *External) Cycle() error {
	if d.spec.Cycle != nil {
		return d.run(d.spec.Cycle)
	}
	return cycle(d, d.port.CycleDelay(), d.sleep)
}

// Get is not supported since there is no status command.
func (d *External) Get() (bool, error) {
	return false, errors.ErrUnsupported
}

func (d *External) run(argv []string) error {
	log.Debug().Str("port", d.port.Name).Strs("argv", argv).Msg("running power command")
	_, err := d.executor.Execute(argv)
	return err
}
