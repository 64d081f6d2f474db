// Package normalize canonicalizes user-supplied strings before they are
// compared or stored.
package normalize

import "strings"

// Email trims and lowercases an address. Emails are compared
// case-insensitively everywhere (users, invitations).
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query-string value and preserves case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
