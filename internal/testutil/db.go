// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database in a per-test temp dir.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMS: 10000,
	})
	require.NoError(t, err, "init test database")
	require.NoError(t, database.AutoMigrate(db), "migrate test database")

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser inserts a user whose password is the username followed by "Pass1".
func CreateUser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(username+"Pass1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(&user).Error, "create user %s", username)
	return user
}

// CategoryID looks up a seeded category.
func CategoryID(t testing.TB, db *gorm.DB, name string) uint {
	t.Helper()

	var c models.Category
	require.NoError(t, db.Where("name = ?", name).First(&c).Error, "category %s", name)
	return c.ID
}
