// internal/domain/normalize.go
//
// Host-header normalization.
//
// Every lookup key in the catalog, the stats log, and the resolver goes
// through Normalize so that "WWW.Example.com:8080" and "example.com" land
// on the same record.  The function is idempotent.
package domain

import (
	"regexp"
	"strings"
)

var (
	portSuffix = regexp.MustCompile(`:\d+$`)
	wwwPrefix  = regexp.MustCompile(`(?i)^www\.`)

	// DNS label syntax: one or more labels, two-letter-plus TLD, no
	// leading hyphen.  Mirrors what the back office accepts on "add".
	domainName = regexp.MustCompile(`^(?i)(?:[a-z0-9-]{1,63}\.)+[a-z]{2,63}$`)
)

// Normalize strips a trailing :port and a leading www., then lowercases.
func Normalize(host string) string {
	if host == "" {
		return host
	}
	host = portSuffix.ReplaceAllString(host, "")
	host = wwwPrefix.ReplaceAllString(host, "")
	return strings.ToLower(host)
}

// Valid reports whether s looks like a registrable domain name.  Callers
// should Normalize first; a leading hyphen in any label is rejected.
func Valid(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if strings.HasPrefix(label, "-") {
			return false
		}
	}
	return domainName.MatchString(s)
}
