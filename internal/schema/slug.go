package schema

import (
	"regexp"
	"strings"
)

const maxSlugLength = 60

var (
	slugStrip     = regexp.MustCompile(`[^\w\s-]`)
	slugSeparator = regexp.MustCompile(`[\s_-]+`)
	slugShape     = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)
)

// GenerateSlug turns a title into a URL alias.
func GenerateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugSeparator.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// ValidSlug reports whether slug can be used as a public alias.
func ValidSlug(slug string) bool {
	if len(slug) < 3 || len(slug) > maxSlugLength {
		return false
	}
	return slugShape.MatchString(slug) && !strings.Contains(slug, "--")
}
