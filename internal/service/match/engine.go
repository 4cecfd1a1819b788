package match

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
)

// Failures the engine's transitions can surface.
var (
	ErrSelfLike         = svcErr.Validation("cannot like yourself")
	ErrSelfBlock        = svcErr.Validation("cannot block yourself")
	ErrSelfReport       = svcErr.Validation("cannot report yourself")
	ErrTargetNotFound   = svcErr.NotFound("target user not found")
	ErrNoProfilePicture = svcErr.Precondition("set a profile picture before liking")
	ErrDuplicateLike    = svcErr.Conflict("already liked this user")
	ErrLikeNotFound     = svcErr.State("no like to remove")
	ErrAlreadyBlocked   = svcErr.Conflict("user already blocked")
	ErrNotBlocked       = svcErr.State("user is not blocked")
)

// NotificationSink receives events emitted by the engine. Emission is
// best-effort: a failing sink never rolls back the transition that
// triggered it.
type NotificationSink interface {
	Emit(ctx context.Context, recipientID uint64, notifType string, actorID uint64, entityID *uint64) error
}

// LikeResult reports what a like transition produced.
type LikeResult struct {
	IsMatch bool    `json:"is_match"`
	MatchID *uint64 `json:"match_id"`
}

// Engine processes like/unlike/block/report events and drives the
// per-pair state machine: NONE -> one directed like -> MATCHED on the
// mutual like, falling back on unlike or block. Every multi-record
// mutation runs as a single transaction; fame recompute and
// notification emission happen after commit.
type Engine struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	photos   *repository.PhotoRepository
	profiles *repository.ProfileRepository
	sink     NotificationSink
	fame     FameConfig
}

// NewEngine creates the match engine with dependencies from AppContext.
func NewEngine(appCtx *app.AppContext, sink NotificationSink) *Engine {
	return &Engine{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		photos:   repository.NewPhotoRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		sink:     sink,
		fame:     FameConfigFrom(appCtx.Config),
	}
}

// LikeUser inserts the directed like edge and, when the reverse edge
// already exists, creates the match.
//
// Atomically: like insert, liked user's likes_count increment, and on
// mutual like the match insert plus both matches_count increments.
// Fame ratings for both parties are recomputed after commit.
func (e *Engine) LikeUser(ctx context.Context, likerID, likedID uint64) (*LikeResult, error) {
	if likerID == likedID {
		return nil, ErrSelfLike
	}
	if err := e.requireUser(ctx, likedID); err != nil {
		return nil, err
	}
	hasPicture, err := e.photos.HasProfilePhoto(ctx, likerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !hasPicture {
		return nil, ErrNoProfilePicture
	}

	result := &LikeResult{}
	err = e.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewInteractionRepository(tx)
		profiles := repository.NewProfileRepository(tx)

		if err := ledger.CreateLike(ctx, likerID, likedID); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateLike
			}
			return err
		}
		if err := profiles.IncrementCounter(ctx, likedID, repository.CounterLikes, 1); err != nil {
			return err
		}

		mutual, err := ledger.LikeExists(ctx, likedID, likerID)
		if err != nil {
			return err
		}
		if !mutual {
			return nil
		}

		m, err := ledger.CreateMatch(ctx, likerID, likedID)
		if err != nil {
			return err
		}
		if err := profiles.IncrementCounter(ctx, likerID, repository.CounterMatches, 1); err != nil {
			return err
		}
		if err := profiles.IncrementCounter(ctx, likedID, repository.CounterMatches, 1); err != nil {
			return err
		}
		result.IsMatch = true
		result.MatchID = &m.ID
		return nil
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if result.IsMatch {
		e.emit(ctx, likedID, db.NotifMatch, likerID, result.MatchID)
		e.emit(ctx, likerID, db.NotifMatch, likedID, result.MatchID)
	} else {
		e.emit(ctx, likedID, db.NotifLike, likerID, nil)
	}
	e.recomputeFame(ctx, likerID)
	e.recomputeFame(ctx, likedID)

	e.appCtx.Logger.Debug("like processed",
		"liker", likerID, "liked", likedID, "match", result.IsMatch)
	return result, nil
}

// UnlikeUser removes the directed like edge. If the pair was matched,
// the match is destroyed and both matches_count decremented; the other
// party receives an unmatch notification.
func (e *Engine) UnlikeUser(ctx context.Context, likerID, likedID uint64) error {
	var unmatched bool
	err := e.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewInteractionRepository(tx)
		profiles := repository.NewProfileRepository(tx)

		deleted, err := ledger.DeleteLike(ctx, likerID, likedID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrLikeNotFound
		}
		if err := profiles.IncrementCounter(ctx, likedID, repository.CounterLikes, -1); err != nil {
			return err
		}

		m, err := ledger.FindMatch(ctx, likerID, likedID)
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		if _, err := ledger.DeleteMatch(ctx, likerID, likedID); err != nil {
			return err
		}
		if err := profiles.IncrementCounter(ctx, likerID, repository.CounterMatches, -1); err != nil {
			return err
		}
		if err := profiles.IncrementCounter(ctx, likedID, repository.CounterMatches, -1); err != nil {
			return err
		}
		unmatched = true
		return nil
	})
	if err != nil {
		return svcErr.Map(err)
	}

	if unmatched {
		e.emit(ctx, likedID, db.NotifUnmatch, likerID, nil)
	}
	e.recomputeFame(ctx, likerID)
	e.recomputeFame(ctx, likedID)

	e.appCtx.Logger.Debug("unlike processed",
		"liker", likerID, "liked", likedID, "unmatched", unmatched)
	return nil
}

// BlockUser inserts the directed block edge and cascade-deletes any
// like or match between the pair.
//
// Counters are intentionally left untouched by the cascade, even
// though the underlying rows are removed; see the design notes.
func (e *Engine) BlockUser(ctx context.Context, blockerID, blockedID uint64) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}
	if err := e.requireUser(ctx, blockedID); err != nil {
		return err
	}

	err := e.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := repository.NewInteractionRepository(tx)

		if err := ledger.CreateBlock(ctx, blockerID, blockedID); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBlocked
			}
			return err
		}
		if err := ledger.DeleteLikesBetween(ctx, blockerID, blockedID); err != nil {
			return err
		}
		_, err := ledger.DeleteMatch(ctx, blockerID, blockedID)
		return err
	})
	if err != nil {
		return svcErr.Map(err)
	}

	e.appCtx.Logger.Debug("block processed", "blocker", blockerID, "blocked", blockedID)
	return nil
}

// UnblockUser removes the directed block edge. The like/match state is
// not restored.
func (e *Engine) UnblockUser(ctx context.Context, blockerID, blockedID uint64) error {
	ledger := repository.NewInteractionRepository(e.appCtx.DB)
	deleted, err := ledger.DeleteBlock(ctx, blockerID, blockedID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !deleted {
		return ErrNotBlocked
	}
	return nil
}

// ReportUser records a fake-account report. Repeat reports for the
// same pair are absorbed.
func (e *Engine) ReportUser(ctx context.Context, reporterID, reportedID uint64, reason string) error {
	if reporterID == reportedID {
		return ErrSelfReport
	}
	if err := e.requireUser(ctx, reportedID); err != nil {
		return err
	}
	ledger := repository.NewInteractionRepository(e.appCtx.DB)
	return svcErr.Map(ledger.CreateReport(ctx, reporterID, reportedID, reason))
}

// RecordView counts one profile view and notifies the target. Every
// call counts; there is no de-duplication window. Callers must not
// invoke it for self-views.
func (e *Engine) RecordView(ctx context.Context, viewerID, targetID uint64) error {
	if err := e.profiles.IncrementCounter(ctx, targetID, repository.CounterViews, 1); err != nil {
		return svcErr.Map(err)
	}
	e.emit(ctx, targetID, db.NotifProfileView, viewerID, nil)
	e.recomputeFame(ctx, targetID)
	return nil
}

func (e *Engine) requireUser(ctx context.Context, id uint64) error {
	exists, err := e.userRepo.UserExists(ctx, id)
	if err != nil {
		return svcErr.Map(err)
	}
	if !exists {
		return ErrTargetNotFound
	}
	return nil
}

// emit forwards an event to the sink, logging and swallowing failures.
func (e *Engine) emit(ctx context.Context, recipientID uint64, notifType string, actorID uint64, entityID *uint64) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Emit(ctx, recipientID, notifType, actorID, entityID); err != nil {
		e.appCtx.Logger.Warn("notification emit failed",
			"recipient", recipientID, "type", notifType, "err", err)
	}
}

// recomputeFame refreshes one user's fame rating from the current
// counters. Best-effort maintenance after commit.
func (e *Engine) recomputeFame(ctx context.Context, userID uint64) {
	p, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !repository.IsNotFound(err) {
			e.appCtx.Logger.Warn("fame recompute read failed", "user", userID, "err", err)
		}
		return
	}
	rating := FameRating(e.fame, p.ViewsCount, p.LikesCount, p.MatchesCount)
	if err := e.profiles.SetFameRating(ctx, userID, rating); err != nil {
		e.appCtx.Logger.Warn("fame recompute write failed", "user", userID, "err", err)
	}
}
