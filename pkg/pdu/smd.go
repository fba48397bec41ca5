package pdu

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/OpenCHAMI/powerctl/pkg/client"
)

// SMDEndpoint is where outlet records are posted, relative to the SMD
// base URL.
const SMDEndpoint = "/hsm/v2/Inventory/RedfishEndpoints"

// SendToSMD() posts each SMD record to the state manager at baseURL. An
// empty accessToken sends the requests without authorization.
func SendToSMD(c *http.Client, baseURL string, accessToken string, records []map[string]any) error {
	uri := strings.TrimSuffix(baseURL, "/") + SMDEndpoint
	header := client.HTTPHeader{}.Authorization(accessToken).ContentType("application/json")
	for _, record := range records {
		body, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal SMD record: %w", err)
		}
		res, b, err := client.MakeRequest(c, uri, http.MethodPost, body, header)
		if err != nil {
			return fmt.Errorf("failed to send record %v to SMD: %w", record["ID"], err)
		}
		// SMD answers 409 for endpoints it already knows
		if !client.StatusOK(res) && res.StatusCode != http.StatusConflict {
			return fmt.Errorf("SMD rejected record %v with status %d: %s", record["ID"], res.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil
}
