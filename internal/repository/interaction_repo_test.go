package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/repository"
)

func TestCreateLikeRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	require.NoError(t, repo.CreateLike(ctx, 1, 2))

	err := repo.CreateLike(ctx, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// opposite direction is a distinct edge
	require.NoError(t, repo.CreateLike(ctx, 2, 1))
}

func TestDeleteLikeReportsExistence(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	require.NoError(t, repo.CreateLike(ctx, 1, 2))

	deleted, err := repo.DeleteLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCreateMatchCanonicalOrdering(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	m, err := repo.CreateMatch(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), m.User1ID)
	assert.Equal(t, uint64(7), m.User2ID)

	// the inverted pair hits the same unique index
	_, err = repo.CreateMatch(ctx, 3, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// lookup works in either order
	found, err := repo.FindMatch(ctx, 7, 3)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, m.ID, found.ID)

	found, err = repo.FindMatch(ctx, 3, 7)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, m.ID, found.ID)
}

func TestFindMatchAbsentReturnsNil(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	m, err := repo.FindMatch(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestBlockedIDsUnionBothDirections(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	require.NoError(t, repo.CreateBlock(ctx, 1, 2)) // 1 blocked 2
	require.NoError(t, repo.CreateBlock(ctx, 3, 1)) // 3 blocked 1
	require.NoError(t, repo.CreateBlock(ctx, 1, 3)) // duplicate id in union

	ids, err := repo.BlockedIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)

	blocked, err := repo.IsBlocked(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = repo.IsBlocked(ctx, 4, 1)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestDeleteLikesBetweenRemovesBothEdges(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	require.NoError(t, repo.CreateLike(ctx, 1, 2))
	require.NoError(t, repo.CreateLike(ctx, 2, 1))
	require.NoError(t, repo.CreateLike(ctx, 1, 3))

	require.NoError(t, repo.DeleteLikesBetween(ctx, 1, 2))

	exists, err := repo.LikeExists(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = repo.LikeExists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	// unrelated edge untouched
	exists, err = repo.LikeExists(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMatchIDsByUser(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	m1, err := repo.CreateMatch(ctx, 1, 2)
	require.NoError(t, err)
	m2, err := repo.CreateMatch(ctx, 5, 1)
	require.NoError(t, err)
	_, err = repo.CreateMatch(ctx, 3, 4)
	require.NoError(t, err)

	matches, err := repo.MatchIDsByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{2: m1.ID, 5: m2.ID}, matches)
}

func TestCreateReportAbsorbsDuplicates(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewInteractionRepository(database)

	require.NoError(t, repo.CreateReport(ctx, 1, 2, "fake account"))
	require.NoError(t, repo.CreateReport(ctx, 1, 2, "fake account again"))

	var count int64
	require.NoError(t, database.Model(&db.Report{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
