package power

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/OpenCHAMI/powerctl/pkg/client"
	"github.com/rs/zerolog/log"
)

// Request sends an HTTP request on behalf of a backend and turns transport
// failures and non-2xx responses into a *NetworkError.
func Request(model string, c *http.Client, method string, uri string, body client.HTTPBody, header client.HTTPHeader) (client.HTTPBody, error) {
	log.Trace().Str("model", model).Str("method", method).Str("url", Redact(uri)).Msg("sending request")
	res, b, err := client.MakeRequest(c, uri, method, body, header)
	if err != nil {
		return nil, &NetworkError{Model: model, URL: Redact(uri), Err: err}
	}
	if !client.StatusOK(res) {
		return nil, &NetworkError{
			Model:      model,
			URL:        Redact(uri),
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(b))),
		}
	}
	return b, nil
}

// Redact drops user info and the query string, which some PDUs use to
// carry credentials, so a URL can be logged or returned in errors.
func Redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// Unexpected builds the error for a response that could not be parsed.
func Unexpected(model string, uri string, body []byte) error {
	return &NetworkError{
		Model: model,
		URL:   Redact(uri),
		Err:   fmt.Errorf("malformed response '%s'", strings.TrimSpace(string(body))),
	}
}
