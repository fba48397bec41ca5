package client

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HTTP aliases for readibility
type HTTPHeader map[string]string
type HTTPBody []byte

func (h HTTPHeader) Authorization(accessToken string) HTTPHeader {
	if accessToken != "" {
		h["Authorization"] = fmt.Sprintf("Bearer %s", accessToken)
	}
	return h
}

func (h HTTPHeader) BasicAuth(username, password string) HTTPHeader {
	if username != "" || password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		h["Authorization"] = fmt.Sprintf("Basic %s", creds)
	}
	return h
}

func (h HTTPHeader) ContentType(contentType string) HTTPHeader {
	h["Content-Type"] = contentType
	return h
}

// MakeRequest() is a wrapper function that condenses simple HTTP
// requests done to a single call. It expects an optional HTTP client,
// URL, HTTP method, request body, and request headers. This function
// is useful when making many requests where only these few arguments
// are changing.
//
// Returns a HTTP response object, response body as byte array, and any
// error that may have occurred with making the request.
func MakeRequest(client *http.Client, url string, httpMethod string, body HTTPBody, header HTTPHeader) (*http.Response, HTTPBody, error) {
	// use defaults if no client provided
	if client == nil {
		client = NewClient()
	}
	req, err := http.NewRequest(httpMethod, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create new HTTP request: %w", err)
	}
	req.Header.Add("User-Agent", "powerctl")
	for k, v := range header {
		req.Header.Add(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make request: %w", err)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if err := res.Body.Close(); err != nil {
		log.Warn().Err(err).Msg("could not close response resource")
	}
	return res, b, nil
}

// StatusOK reports whether the response carries a 2xx status code.
func StatusOK(res *http.Response) bool {
	return res != nil && res.StatusCode >= 200 && res.StatusCode < 300
}
