package models_test

import (
	"testing"

	"formflow/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestForm_DisplayTitle(t *testing.T) {
	f := &models.Form{InternalTitle: "internal"}
	assert.Equal(t, "internal", f.DisplayTitle())

	empty := ""
	f.PublicTitle = &empty
	assert.Equal(t, "internal", f.DisplayTitle())

	public := "Tell us about you"
	f.PublicTitle = &public
	assert.Equal(t, "Tell us about you", f.DisplayTitle())
}
