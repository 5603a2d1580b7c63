package checker

import "strings"

// NormalizeDomain reduces user input to a bare hostname.
// It handles inputs such as:
//   - example.com
//   - https://example.com
//   - http://www.example.com/path
//
// One scheme prefix and the leading "www." label are removed, then everything
// from the first "/" on is dropped. Repeated "www." labels are all stripped so
// that normalizing twice yields the same host. The result is not validated;
// malformed hosts simply make the probes fail.
func NormalizeDomain(raw string) string {
	host := raw
	switch {
	case strings.HasPrefix(host, "https://"):
		host = strings.TrimPrefix(host, "https://")
	case strings.HasPrefix(host, "http://"):
		host = strings.TrimPrefix(host, "http://")
	}
	for strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	}
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	return host
}
