package pdu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Cray-HPE/hms-xname/xnames"
)

const (
	StateOn      = "ON"
	StateOff     = "OFF"
	StateUnknown = "UNKNOWN"
)

type PDUOutlet struct {
	ID         string `json:"id"          yaml:"id"`          // outlet index, e.g. "3"
	Name       string `json:"name"        yaml:"name"`        // e.g. "pdu0-3" or an xname
	PowerState string `json:"power_state" yaml:"power_state"` // ON, OFF or UNKNOWN
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type PDUInventory struct {
	Hostname string      `json:"hostname" yaml:"hostname"`
	Model    string      `json:"model"    yaml:"model"`
	Outlets  []PDUOutlet `json:"outlets"  yaml:"outlets"`
}

// ToSMD() converts an inventory into SMD component endpoint records. The
// controller must be a CabinetPDUController xname such as x3000m0; outlet
// ids become the power connector ordinal of PDU 0.
func ToSMD(inventory *PDUInventory, controller string) ([]map[string]any, error) {
	ctrl, ok := xnames.FromString(controller).(xnames.CabinetPDUController)
	if !ok {
		return nil, fmt.Errorf("'%s' is not a cabinet PDU controller xname", controller)
	}

	records := make([]map[string]any, 0, len(inventory.Outlets))
	for _, outlet := range inventory.Outlets {
		ordinal, err := strconv.Atoi(strings.TrimSpace(outlet.ID))
		if err != nil {
			return nil, fmt.Errorf("outlet id '%s' is not numeric: %w", outlet.ID, err)
		}
		connector := xnames.CabinetPDUPowerConnector{
			Cabinet:                  ctrl.Cabinet,
			CabinetPDUController:     ctrl.CabinetPDUController,
			CabinetPDU:               0,
			CabinetPDUPowerConnector: ordinal,
		}
		records = append(records, map[string]any{
			"ID":                    connector.String(),
			"Type":                  "CabinetPDUPowerConnector",
			"RedfishType":           "Outlet",
			"RedfishEndpointID":     ctrl.String(),
			"RedfishEndpointFQDN":   inventory.Hostname,
			"Enabled":               true,
			"ComponentEndpointType": "ComponentEndpointOutlet",
			"RedfishOutletInfo": map[string]any{
				"Name":       outlet.Name,
				"PowerState": outlet.PowerState,
				"Model":      inventory.Model,
			},
		})
	}
	return records, nil
}
