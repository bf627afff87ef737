package database

import (
	"testing"
	"time"

	"formflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	for _, m := range []any{&models.User{}, &models.Form{}, &models.Submission{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.Equal(t, time.UTC, db.NowFunc().Location())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
