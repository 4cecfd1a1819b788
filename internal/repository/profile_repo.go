package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberapp/ember-server/internal/db"
)

// Counter column names accepted by IncrementCounter.
const (
	CounterViews   = "views_count"
	CounterLikes   = "likes_count"
	CounterMatches = "matches_count"
)

// ProfileRepository provides data access for the Profile model and is
// the single place counters and fame ratings are written.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID uint64) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts the profile on first edit and updates the
// editable fields afterwards. Counters and fame rating are never
// written through this path.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *db.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gender", "sexual_preference", "bio", "birth_date",
				"latitude", "longitude", "last_location",
			}),
		}).
		Create(p).Error
}

// IncrementCounter adjusts one of the profile counters by delta,
// flooring the result at 0 regardless of ledger state.
func (r *ProfileRepository) IncrementCounter(ctx context.Context, userID uint64, counter string, delta int64) error {
	switch counter {
	case CounterViews, CounterLikes, CounterMatches:
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	expr := fmt.Sprintf(
		"CASE WHEN %s + ? < 0 THEN 0 ELSE %s + ? END",
		counter, counter,
	)
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn(counter, gorm.Expr(expr, delta, delta)).Error
}

// SetFameRating stores a recomputed fame rating.
func (r *ProfileRepository) SetFameRating(ctx context.Context, userID uint64, value float64) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("fame_rating", value).Error
}

// CandidateRow is the flattened user+profile projection the browse
// pipeline scores and filters.
type CandidateRow struct {
	UserID           uint64
	Username         string
	Online           bool
	LastLoginAt      time.Time
	Gender           string
	SexualPreference string
	Bio              string
	BirthDate        *time.Time
	Latitude         *float64
	Longitude        *float64
	LastLocation     string
	FameRating       float64
}

// ListCandidates streams the candidate pool for a viewer: completed
// profiles only, optionally restricted to the given gender/preference
// sets, minus the excluded ids (viewer + block union).
func (r *ProfileRepository) ListCandidates(
	ctx context.Context,
	excludeIDs []uint64,
	genders, preferences []string,
) ([]CandidateRow, error) {
	query := r.db.WithContext(ctx).
		Table("profiles p").
		Select(`u.id AS user_id, u.username, u.online, u.last_login_at,
			p.gender, p.sexual_preference, p.bio, p.birth_date,
			p.latitude, p.longitude, p.last_location, p.fame_rating`).
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.gender <> '' AND p.sexual_preference <> ''")

	if len(excludeIDs) > 0 {
		query = query.Where("u.id NOT IN ?", excludeIDs)
	}
	if len(genders) > 0 {
		query = query.Where("p.gender IN ?", genders)
	}
	if len(preferences) > 0 {
		query = query.Where("p.sexual_preference IN ?", preferences)
	}

	var rows []CandidateRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
