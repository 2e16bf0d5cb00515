package database

import (
	"testing"

	"nexar-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAutoMigrateAndPing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))
	for _, m := range domain.Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.NoError(t, (&Pinger{DB: db}).Ping())
}
