package power

import (
	"strconv"
	"strings"
	"time"

	"github.com/Cray-HPE/hms-xname/xnames"
)

// DefaultDelay is the pause between the off and on phases of a composed
// power cycle.
const DefaultDelay = 2 * time.Second

// Mode selects the driver that controls a port.
type Mode string

const (
	ModeManual   Mode = "manual"
	ModeExternal Mode = "external"
	ModeNetwork  Mode = "network"
)

// Port describes a single switchable power outlet as configured by the
// harness. Drivers copy the descriptor and never modify it.
type Port struct {
	Name        string        `json:"name"                  yaml:"name"                  db:"name"`
	Mode        Mode          `json:"mode,omitempty"        yaml:"mode,omitempty"        db:"mode"`
	Model       string        `json:"model,omitempty"       yaml:"model,omitempty"       db:"model"`
	Host        string        `json:"host,omitempty"        yaml:"host,omitempty"        db:"host"`
	Index       string        `json:"index,omitempty"       yaml:"index,omitempty"       db:"idx"`
	CmdOn       string        `json:"cmd_on,omitempty"      yaml:"cmd_on,omitempty"      db:"cmd_on"`
	CmdOff      string        `json:"cmd_off,omitempty"     yaml:"cmd_off,omitempty"     db:"cmd_off"`
	CmdCycle    string        `json:"cmd_cycle,omitempty"   yaml:"cmd_cycle,omitempty"   db:"cmd_cycle"`
	Delay       time.Duration `json:"delay,omitempty"       yaml:"delay,omitempty"       db:"delay"`
	Credentials string        `json:"credentials,omitempty" yaml:"credentials,omitempty" db:"credentials"`
}

// ResolvedMode returns the explicit mode, or infers one from the fields
// that are set: commands select the external driver, a model selects the
// network driver and anything else falls back to manual control.
func (p Port) ResolvedMode() Mode {
	if p.Mode != "" {
		return p.Mode
	}
	if p.CmdOn != "" || p.CmdOff != "" || p.CmdCycle != "" {
		return ModeExternal
	}
	if p.Model != "" {
		return ModeNetwork
	}
	return ModeManual
}

// CycleDelay returns the configured delay or DefaultDelay when unset.
func (p Port) CycleDelay() time.Duration {
	if p.Delay <= 0 {
		return DefaultDelay
	}
	return p.Delay
}

// ResolvedIndex returns the configured index. When no index is set and the
// port is named after a cabinet PDU power connector xname (x3000m0p0v17),
// the connector ordinal is used instead.
func (p Port) ResolvedIndex() string {
	if p.Index != "" {
		return p.Index
	}
	if connector, ok := xnames.FromString(strings.TrimSpace(p.Name)).(xnames.CabinetPDUPowerConnector); ok {
		return strconv.Itoa(connector.CabinetPDUPowerConnector)
	}
	return ""
}

// Validate checks the fields required by the resolved mode. Backend
// specific checks happen when the driver is constructed.
func (p Port) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ConfigurationError{Field: "name", Reason: "port name is required"}
	}
	switch p.ResolvedMode() {
	case ModeManual:
	case ModeExternal:
		if p.CmdOn == "" {
			return &ConfigurationError{Field: "cmd_on", Value: p.Name, Reason: "external ports require an on command"}
		}
		if p.CmdOff == "" {
			return &ConfigurationError{Field: "cmd_off", Value: p.Name, Reason: "external ports require an off command"}
		}
	case ModeNetwork:
		if p.Model == "" {
			return &ConfigurationError{Field: "model", Value: p.Name, Reason: "network ports require a backend model"}
		}
		if p.Host == "" {
			return &ConfigurationError{Field: "host", Value: p.Name, Reason: "network ports require a host"}
		}
	default:
		return &ConfigurationError{Field: "mode", Value: string(p.Mode), Reason: "must be one of manual, external, network"}
	}
	return nil
}
