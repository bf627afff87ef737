package schema_test

import (
	"strings"
	"testing"

	"formflow/internal/schema"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "customer-feedback-2026", schema.GenerateSlug("  Customer Feedback: 2026! "))
	assert.Equal(t, "a-b", schema.GenerateSlug("a__--  b"))
	assert.Equal(t, "", schema.GenerateSlug("!!!"))
	long := schema.GenerateSlug(strings.Repeat("word ", 30))
	assert.LessOrEqual(t, len(long), 60)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestValidSlug(t *testing.T) {
	for _, s := range []string{"abc", "contact-us", "form-2026"} {
		assert.True(t, schema.ValidSlug(s), s)
	}
	for _, s := range []string{"", "ab", "-abc", "abc-", "a--b", "Upper", "has space", strings.Repeat("a", 61)} {
		assert.False(t, schema.ValidSlug(s), s)
	}
}
