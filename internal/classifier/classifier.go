// Package classifier decides whether user input names an IP address or a place.
//
// The check is syntactic only: "999.1.1.1" is routed to the IP path and the
// geolocation provider is left to reject it.
package classifier

import (
	"regexp"
	"strings"
)

// Kind is the lookup path selected for an input
type Kind int

const (
	KindEmpty Kind = iota // No input: look up the caller's own IP
	KindIP                // Dotted-quad or colon-hex syntax
	KindPlace             // Anything else: free-text place name
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "self"
	case KindIP:
		return "ip"
	case KindPlace:
		return "place"
	default:
		return "unknown"
	}
}

var (
	ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	ipv6Pattern = regexp.MustCompile(`^[0-9A-Fa-f]{0,4}(:[0-9A-Fa-f]{0,4}){2,7}$`)

	// IPv4-mapped and IPv4-compatible forms, e.g. ::ffff:192.0.2.1
	ipv6WithIPv4Pattern = regexp.MustCompile(`^[0-9A-Fa-f]{0,4}(:[0-9A-Fa-f]{0,4}){1,5}:\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// Classify trims the input and selects its lookup path
func Classify(input string) Kind {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return KindEmpty
	case IsIP(s):
		return KindIP
	default:
		return KindPlace
	}
}

// IsIP reports whether s has IPv4 dotted-quad or IPv6 colon-hex syntax
func IsIP(s string) bool {
	if ipv4Pattern.MatchString(s) {
		return true
	}
	// A bare run of colons is not an address; "::" alone is
	if s != "::" && strings.Trim(s, ":") == "" {
		return false
	}
	return ipv6Pattern.MatchString(s) || ipv6WithIPv4Pattern.MatchString(s)
}
