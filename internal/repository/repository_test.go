package repository_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/db"
)

// setupTestDB opens an isolated in-memory SQLite database with the
// full schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// seedUser inserts a bare user row and returns its id.
func seedUser(t *testing.T, database *gorm.DB, name string) uint64 {
	t.Helper()
	u := db.User{
		Username:     name,
		Email:        name + "@test.com",
		PasswordHash: "x",
	}
	require.NoError(t, database.Create(&u).Error)
	return u.ID
}

// seedProfile inserts a completed profile for the user.
func seedProfile(t *testing.T, database *gorm.DB, userID uint64, gender, pref string) {
	t.Helper()
	p := db.Profile{
		UserID:           userID,
		Gender:           gender,
		SexualPreference: pref,
	}
	require.NoError(t, database.Create(&p).Error)
}
