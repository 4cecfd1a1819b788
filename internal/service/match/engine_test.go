package match_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/service/match"
)

type sinkEvent struct {
	RecipientID uint64
	Type        string
	ActorID     uint64
	EntityID    *uint64
}

// sinkRecorder captures emitted events for assertions.
type sinkRecorder struct {
	events []sinkEvent
}

func (s *sinkRecorder) Emit(_ context.Context, recipientID uint64, notifType string, actorID uint64, entityID *uint64) error {
	s.events = append(s.events, sinkEvent{recipientID, notifType, actorID, entityID})
	return nil
}

func (s *sinkRecorder) ofType(notifType string) []sinkEvent {
	var out []sinkEvent
	for _, e := range s.events {
		if e.Type == notifType {
			out = append(out, e)
		}
	}
	return out
}

type engineFixture struct {
	db     *gorm.DB
	engine *match.Engine
	sink   *sinkRecorder
}

func setupEngine(t *testing.T) *engineFixture {
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

	appCtx := app.New(database, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), config.New())
	sink := &sinkRecorder{}
	return &engineFixture{
		db:     database,
		engine: match.NewEngine(appCtx, sink),
		sink:   sink,
	}
}

// seedMember creates a user with a completed profile and a flagged
// profile photo, ready to like and be liked.
func (f *engineFixture) seedMember(t *testing.T, name string) uint64 {
	t.Helper()
	u := db.User{Username: name, Email: name + "@test.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&u).Error)
	require.NoError(t, f.db.Create(&db.Profile{
		UserID:           u.ID,
		Gender:           db.GenderFemale,
		SexualPreference: db.PrefBisexual,
	}).Error)
	require.NoError(t, f.db.Create(&db.Photo{
		UserID:    u.ID,
		Path:      "/photos/" + name + ".jpg",
		IsProfile: true,
	}).Error)
	return u.ID
}

func (f *engineFixture) profile(t *testing.T, userID uint64) db.Profile {
	t.Helper()
	var p db.Profile
	require.NoError(t, f.db.First(&p, "user_id = ?", userID).Error)
	return p
}

func TestLikeUserOneDirection(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	res, err := f.engine.LikeUser(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.Nil(t, res.MatchID)

	assert.Equal(t, int64(1), f.profile(t, bob).LikesCount)
	assert.Equal(t, int64(0), f.profile(t, alice).LikesCount)

	likes := f.sink.ofType(db.NotifLike)
	require.Len(t, likes, 1)
	assert.Equal(t, bob, likes[0].RecipientID)
	assert.Equal(t, alice, likes[0].ActorID)
}

func TestMutualLikeCreatesOneMatch(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	_, err := f.engine.LikeUser(ctx, alice, bob)
	require.NoError(t, err)
	res, err := f.engine.LikeUser(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	require.NotNil(t, res.MatchID)

	var matches []db.Match
	require.NoError(t, f.db.Find(&matches).Error)
	require.Len(t, matches, 1)
	// pair is stored in canonical order
	assert.Less(t, matches[0].User1ID, matches[0].User2ID)

	assert.Equal(t, int64(1), f.profile(t, alice).MatchesCount)
	assert.Equal(t, int64(1), f.profile(t, bob).MatchesCount)

	// both sides are told about the match
	events := f.sink.ofType(db.NotifMatch)
	require.Len(t, events, 2)
	recipients := map[uint64]bool{events[0].RecipientID: true, events[1].RecipientID: true}
	assert.True(t, recipients[alice])
	assert.True(t, recipients[bob])
}

func TestDuplicateLikeConflicts(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	_, err := f.engine.LikeUser(ctx, alice, bob)
	require.NoError(t, err)

	_, err = f.engine.LikeUser(ctx, alice, bob)
	require.ErrorIs(t, err, match.ErrDuplicateLike)

	// the failed like must not leak a counter increment
	assert.Equal(t, int64(1), f.profile(t, bob).LikesCount)
	var count int64
	require.NoError(t, f.db.Model(&db.Like{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLikeGuards(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	_, err := f.engine.LikeUser(ctx, alice, alice)
	assert.ErrorIs(t, err, match.ErrSelfLike)

	_, err = f.engine.LikeUser(ctx, alice, 9999)
	assert.ErrorIs(t, err, match.ErrTargetNotFound)

	// a user without a flagged photo cannot like
	require.NoError(t, f.db.Model(&db.Photo{}).
		Where("user_id = ?", alice).
		Update("is_profile", false).Error)
	_, err = f.engine.LikeUser(ctx, alice, bob)
	assert.ErrorIs(t, err, match.ErrNoProfilePicture)
}

func TestUnlikeReversesLike(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	_, err := f.engine.LikeUser(ctx, alice, bob)
	require.NoError(t, err)
	require.NoError(t, f.engine.UnlikeUser(ctx, alice, bob))

	// like then unlike nets out to zero
	assert.Equal(t, int64(0), f.profile(t, bob).LikesCount)

	err = f.engine.UnlikeUser(ctx, alice, bob)
	require.Error(t, err)
	assert.True(t, svcErr.IsKind(err, svcErr.KindState))
}

func TestUnlikeDestroysMatch(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	_, err := f.engine.LikeUser(ctx, alice, bob)
	require.NoError(t, err)
	_, err = f.engine.LikeUser(ctx, bob, alice)
	require.NoError(t, err)

	require.NoError(t, f.engine.UnlikeUser(ctx, alice, bob))

	var count int64
	require.NoError(t, f.db.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, int64(0), f.profile(t, alice).MatchesCount)
	assert.Equal(t, int64(0), f.profile(t, bob).MatchesCount)

	// bob still likes alice, so his like survives
	ledger := repository.NewInteractionRepository(f.db)
	exists, err := ledger.LikeExists(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, exists)

	unmatch := f.sink.ofType(db.NotifUnmatch)
	require.Len(t, unmatch, 1)
	assert.Equal(t, bob, unmatch[0].RecipientID)
}

func TestBlockCascades(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	_, err := f.engine.LikeUser(ctx, alice, bob)
	require.NoError(t, err)
	_, err = f.engine.LikeUser(ctx, bob, alice)
	require.NoError(t, err)

	require.NoError(t, f.engine.BlockUser(ctx, alice, bob))

	var likeCount, matchCount int64
	require.NoError(t, f.db.Model(&db.Like{}).Count(&likeCount).Error)
	require.NoError(t, f.db.Model(&db.Match{}).Count(&matchCount).Error)
	assert.Equal(t, int64(0), likeCount)
	assert.Equal(t, int64(0), matchCount)

	ledger := repository.NewInteractionRepository(f.db)
	blocked, err := ledger.IsBlocked(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, blocked)

	// the cascade does not touch the counters
	assert.Equal(t, int64(1), f.profile(t, alice).MatchesCount)
	assert.Equal(t, int64(1), f.profile(t, bob).MatchesCount)

	err = f.engine.BlockUser(ctx, alice, bob)
	assert.ErrorIs(t, err, match.ErrAlreadyBlocked)
}

func TestUnblock(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	err := f.engine.UnblockUser(ctx, alice, bob)
	assert.ErrorIs(t, err, match.ErrNotBlocked)

	require.NoError(t, f.engine.BlockUser(ctx, alice, bob))
	require.NoError(t, f.engine.UnblockUser(ctx, alice, bob))

	ledger := repository.NewInteractionRepository(f.db)
	blocked, err := ledger.IsBlocked(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestReportUser(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	assert.ErrorIs(t, f.engine.ReportUser(ctx, alice, alice, "fake"), match.ErrSelfReport)
	assert.ErrorIs(t, f.engine.ReportUser(ctx, alice, 9999, "fake"), match.ErrTargetNotFound)

	require.NoError(t, f.engine.ReportUser(ctx, alice, bob, "fake account"))
	// repeat reports are absorbed
	require.NoError(t, f.engine.ReportUser(ctx, alice, bob, "still fake"))

	var count int64
	require.NoError(t, f.db.Model(&db.Report{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordViewBumpsFame(t *testing.T) {
	ctx := context.Background()
	f := setupEngine(t)
	alice := f.seedMember(t, "alice")
	bob := f.seedMember(t, "bob")

	require.NoError(t, f.db.Model(&db.Profile{}).
		Where("user_id = ?", bob).
		UpdateColumn("views_count", 49).Error)

	require.NoError(t, f.engine.RecordView(ctx, alice, bob))

	// 50 views against a divisor of 100 -> round(0.3 * 50) = 15
	p := f.profile(t, bob)
	assert.Equal(t, int64(50), p.ViewsCount)
	assert.Equal(t, float64(15), p.FameRating)

	views := f.sink.ofType(db.NotifProfileView)
	require.Len(t, views, 1)
	assert.Equal(t, bob, views[0].RecipientID)
	assert.Equal(t, alice, views[0].ActorID)
}
