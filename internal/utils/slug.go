package utils

import "regexp"

// Guide slugs are lowercase alphanumerics with inner hyphens, 2-64 chars.
// Anything else is rejected before it ever reaches the directory.
var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,62}[a-z0-9])?$`)

// ValidSlug reports whether s is a well-formed guide slug.
func ValidSlug(s string) bool {
	return len(s) >= 2 && slugPattern.MatchString(s)
}
