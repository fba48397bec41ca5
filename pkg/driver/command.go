package driver

import (
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/google/shlex"
)

// CommandSpec holds the argument vectors of an external port, split once
// when the driver is built.
type CommandSpec struct {
	On    []string
	Off   []string
	Cycle []string
}

func NewCommandSpec(port power.Port) (*CommandSpec, error) {
	var (
		spec CommandSpec
		err  error
	)
	if spec.On, err = split("cmd_on", port.CmdOn); err != nil {
		return nil, err
	}
	if spec.Off, err = split("cmd_off", port.CmdOff); err != nil {
		return nil, err
	}
	if port.CmdCycle != "" {
		if spec.Cycle, err = split("cmd_cycle", port.CmdCycle); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}

func split(field string, command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, &power.ConfigurationError{Field: field, Value: command, Err: err}
	}
	if len(argv) == 0 {
		return nil, &power.ConfigurationError{Field: field, Value: command, Reason: "empty command"}
	}
	return argv, nil
}
