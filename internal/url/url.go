package url

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/OpenCHAMI/powerctl/pkg/power"
)

// IndexPlaceholder is replaced with the port index in host templates.
const IndexPlaceholder = "{index}"

// DefaultPort returns the implicit port for a URL scheme.
func DefaultPort(scheme string) (int, bool) {
	switch strings.ToLower(scheme) {
	case "http":
		return 80, true
	case "https":
		return 443, true
	}
	return 0, false
}

// Normalize() substitutes the index into a host template and makes the
// port explicit, e.g.
//
//	http://example.com/{index}       + 1 -> http://example.com:80/1
//	https://example.com:1234/{index} + 1 -> https://example.com:1234/1
//
// Only the authority is rewritten. The remainder of the template,
// including other placeholders like {value}, is kept byte for byte.
//
// Returns a configuration error if the result is not an absolute http or
// https URL with a host.
func Normalize(template string, index string) (string, error) {
	raw := strings.ReplaceAll(template, IndexPlaceholder, index)

	// URL sanitanization for host template
	uri, err := url.Parse(raw)
	if err != nil {
		return "", &power.ConfigurationError{Field: "host", Value: template, Err: err}
	}
	port, ok := DefaultPort(uri.Scheme)
	if !ok {
		return "", &power.ConfigurationError{Field: "host", Value: template, Reason: "scheme must be http or https"}
	}
	if uri.Hostname() == "" {
		return "", &power.ConfigurationError{Field: "host", Value: template, Reason: "missing host"}
	}
	if uri.Port() != "" {
		return raw, nil
	}

	// split scheme://authority from the rest so only the authority changes
	sep := strings.Index(raw, "://")
	if sep < 0 {
		return "", &power.ConfigurationError{Field: "host", Value: template, Reason: "missing scheme separator"}
	}
	prefix, rest := raw[:sep+3], raw[sep+3:]
	authority, tail := rest, ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority, tail = rest[:i], rest[i:]
	}
	// a bare trailing colon means the port was left empty
	authority = strings.TrimSuffix(authority, ":")
	return fmt.Sprintf("%s%s:%d%s", prefix, authority, port, tail), nil
}

// Sanitize() tidies up a base URL by removing trailing and doubled
// slashes from the path.
func Sanitize(uri string) (string, error) {
	parsedURI, err := url.ParseRequestURI(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse URI: %w", err)
	}
	// Remove any trailing slashes
	parsedURI.Path = strings.TrimSuffix(parsedURI.Path, "/")
	// Collapse any doubled slashes
	parsedURI.Path = strings.ReplaceAll(parsedURI.Path, "//", "/")
	return parsedURI.String(), nil
}
