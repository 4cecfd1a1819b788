package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/repository"
)

func TestUpsertProfileCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	userID := seedUser(t, database, "upsert1")

	require.NoError(t, repo.UpsertProfile(ctx, &db.Profile{
		UserID: userID,
		Gender: db.GenderFemale,
		Bio:    "first",
	}))

	p, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "first", p.Bio)

	p.Bio = "second"
	require.NoError(t, repo.UpsertProfile(ctx, p))

	p, err = repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "second", p.Bio)
	assert.Equal(t, db.GenderFemale, p.Gender)
}

func TestIncrementCounterFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	userID := seedUser(t, database, "counters1")
	seedProfile(t, database, userID, db.GenderMale, db.PrefBisexual)

	require.NoError(t, repo.IncrementCounter(ctx, userID, repository.CounterLikes, 2))
	require.NoError(t, repo.IncrementCounter(ctx, userID, repository.CounterLikes, -5))

	p, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.LikesCount)
}

func TestIncrementCounterRejectsUnknownColumn(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	err := repo.IncrementCounter(ctx, 1, "fame_rating", 1)
	assert.Error(t, err)
}

func TestSetFameRating(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	userID := seedUser(t, database, "fame1")
	seedProfile(t, database, userID, db.GenderMale, db.PrefBisexual)

	require.NoError(t, repo.SetFameRating(ctx, userID, 42))

	p, err := repo.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, p.FameRating)
}

func TestListCandidatesFiltersAndExcludes(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	alice := seedUser(t, database, "alice")
	seedProfile(t, database, alice, db.GenderFemale, db.PrefHeterosexual)
	bob := seedUser(t, database, "bob")
	seedProfile(t, database, bob, db.GenderMale, db.PrefHeterosexual)
	carol := seedUser(t, database, "carol")
	seedProfile(t, database, carol, db.GenderFemale, db.PrefHomosexual)
	// dave has no completed profile
	dave := seedUser(t, database, "dave")
	seedProfile(t, database, dave, "", "")

	rows, err := repo.ListCandidates(ctx, []uint64{alice},
		[]string{db.GenderFemale}, []string{db.PrefHeterosexual, db.PrefHomosexual})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, carol, rows[0].UserID)
}

func TestListCandidatesNoFilters(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	a := seedUser(t, database, "nf_a")
	seedProfile(t, database, a, db.GenderMale, db.PrefBisexual)
	b := seedUser(t, database, "nf_b")
	seedProfile(t, database, b, db.GenderFemale, db.PrefBisexual)

	rows, err := repo.ListCandidates(ctx, nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
