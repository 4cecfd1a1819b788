package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberapp/ember-server/internal/db"
)

// InteractionRepository is the single ledger for like, match, block
// and report rows. All call paths that touch these edges go through
// here so the like/unlike semantics exist exactly once.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given
// DB (or transaction) handle.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// canonicalPair orders an undirected pair as (min, max). Matches are
// stored this way so the same couple can never occupy two rows.
func canonicalPair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// --- likes ---

// CreateLike inserts the directed edge liker -> liked. A duplicate
// insert is rejected by the composite PK and surfaces as
// gorm.ErrDuplicatedKey; concurrent duplicates serialize on the same
// constraint rather than on application locks.
func (r *InteractionRepository) CreateLike(ctx context.Context, likerID, likedID uint64) error {
	return r.db.WithContext(ctx).
		Create(&db.Like{LikerID: likerID, LikedID: likedID}).Error
}

// DeleteLike removes the directed edge and reports whether it existed.
func (r *InteractionRepository) DeleteLike(ctx context.Context, likerID, likedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Delete(&db.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *InteractionRepository) LikeExists(ctx context.Context, likerID, likedID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	return count > 0, err
}

// LikedIDs returns every user the given viewer has liked.
func (r *InteractionRepository) LikedIDs(ctx context.Context, likerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ?", likerID).
		Pluck("liked_id", &ids).Error
	return ids, err
}

// --- matches ---

// CreateMatch materializes the mutual-like relationship with canonical
// ordering. The unique pair index makes creation exactly-once.
func (r *InteractionRepository) CreateMatch(ctx context.Context, a, b uint64) (*db.Match, error) {
	u1, u2 := canonicalPair(a, b)
	m := db.Match{User1ID: u1, User2ID: u2}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindMatch returns the match for a pair in either given order, or nil.
func (r *InteractionRepository) FindMatch(ctx context.Context, a, b uint64) (*db.Match, error) {
	u1, u2 := canonicalPair(a, b)
	var m db.Match
	err := r.db.WithContext(ctx).
		First(&m, "user1_id = ? AND user2_id = ?", u1, u2).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMatch removes the match row for a pair, if any.
func (r *InteractionRepository) DeleteMatch(ctx context.Context, a, b uint64) (bool, error) {
	u1, u2 := canonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Delete(&db.Match{})
	return res.RowsAffected > 0, res.Error
}

// MatchIDsByUser returns otherUserID -> matchID for every match the
// given user participates in.
func (r *InteractionRepository) MatchIDsByUser(ctx context.Context, userID uint64) (map[uint64]uint64, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uint64]uint64, len(matches))
	for _, m := range matches {
		other := m.User1ID
		if other == userID {
			other = m.User2ID
		}
		result[other] = m.ID
	}
	return result, nil
}

// --- blocks ---

// CreateBlock inserts the directed block edge. A repeat block is
// rejected by the composite PK.
func (r *InteractionRepository) CreateBlock(ctx context.Context, blockerID, blockedID uint64) error {
	return r.db.WithContext(ctx).
		Create(&db.BlockedUser{BlockerID: blockerID, BlockedID: blockedID}).Error
}

// DeleteBlock removes the directed block edge and reports whether it existed.
func (r *InteractionRepository) DeleteBlock(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&db.BlockedUser{})
	return res.RowsAffected > 0, res.Error
}

// IsBlocked reports whether a block exists between two users in either
// direction.
func (r *InteractionRepository) IsBlocked(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// BlockedIDs returns the union of users blocking or blocked by the
// given user. Candidate selection excludes this whole set.
func (r *InteractionRepository) BlockedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var blocked []uint64
	if err := r.db.WithContext(ctx).
		Model(&db.BlockedUser{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, err
	}
	var blockers []uint64
	if err := r.db.WithContext(ctx).
		Model(&db.BlockedUser{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &blockers).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{}, len(blocked)+len(blockers))
	union := make([]uint64, 0, len(blocked)+len(blockers))
	for _, id := range append(blocked, blockers...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		union = append(union, id)
	}
	return union, nil
}

// DeleteLikesBetween removes both directed like edges between a pair.
func (r *InteractionRepository) DeleteLikesBetween(ctx context.Context, a, b uint64) error {
	return r.db.WithContext(ctx).
		Where("(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)", a, b, b, a).
		Delete(&db.Like{}).Error
}

// --- reports ---

// CreateReport records a fake-account report. One row per ordered pair.
func (r *InteractionRepository) CreateReport(ctx context.Context, reporterID, reportedID uint64, reason string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Report{ReporterID: reporterID, ReportedID: reportedID, Reason: reason}).Error
}
