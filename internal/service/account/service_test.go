package account_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/service/account"
)

type accountFixture struct {
	db    *gorm.DB
	cache *cache.RedisCache
	svc   *account.Service
}

func setupAccount(t *testing.T) *accountFixture {
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

	mr := miniredis.RunT(t)
	rdb := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	appCtx := app.New(database, rdb, slog.New(slog.NewTextHandler(io.Discard, nil)), config.New())
	return &accountFixture{db: database, cache: rdb, svc: account.NewService(appCtx)}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := setupAccount(t)

	user, err := f.svc.Register(ctx, account.RegisterInput{
		Username: "alice",
		Email:    "  Alice@Example.COM ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	// email is normalized to lower case
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.Verified)

	// the stored hash verifies against the original password
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := setupAccount(t)

	cases := []struct {
		name string
		in   account.RegisterInput
	}{
		{"short username", account.RegisterInput{Username: "ab", Email: "a@b.com", Password: "longenough"}},
		{"bad username chars", account.RegisterInput{Username: "no spaces", Email: "a@b.com", Password: "longenough"}},
		{"bad email", account.RegisterInput{Username: "alice", Email: "not-an-email", Password: "longenough"}},
		{"short password", account.RegisterInput{Username: "alice", Email: "a@b.com", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, svcErr.IsKind(err, svcErr.KindValidation))
		})
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	f := setupAccount(t)

	_, err := f.svc.Register(ctx, account.RegisterInput{
		Username: "alice", Email: "alice@test.com", Password: "longenough",
	})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, account.RegisterInput{
		Username: "alice", Email: "other@test.com", Password: "longenough",
	})
	require.Error(t, err)
	assert.True(t, svcErr.IsKind(err, svcErr.KindConflict))

	_, err = f.svc.Register(ctx, account.RegisterInput{
		Username: "alice2", Email: "alice@test.com", Password: "longenough",
	})
	require.Error(t, err)
	assert.True(t, svcErr.IsKind(err, svcErr.KindConflict))
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := setupAccount(t)

	user, err := f.svc.Register(ctx, account.RegisterInput{
		Username: "alice", Email: "alice@test.com", Password: "longenough",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyEmail(ctx, user.ID))

	var stored db.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.True(t, stored.Verified)

	err = f.svc.VerifyEmail(ctx, 9999)
	require.Error(t, err)
	assert.True(t, svcErr.IsKind(err, svcErr.KindNotFound))
}

func TestLoginLogoutStamps(t *testing.T) {
	ctx := context.Background()
	f := setupAccount(t)

	user, err := f.svc.Register(ctx, account.RegisterInput{
		Username: "alice", Email: "alice@test.com", Password: "longenough",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.TouchLogin(ctx, user.ID))
	var stored db.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.True(t, stored.Online)
	assert.False(t, stored.LastLoginAt.IsZero())

	require.NoError(t, f.cache.SetOnline(ctx, user.ID))
	require.NoError(t, f.svc.Logout(ctx, user.ID))

	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.False(t, stored.Online)

	online, err := f.cache.IsOnline(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, online)
}
