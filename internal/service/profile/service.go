package profile

import (
	"context"
	"time"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/service/match"
)

// UpdateInput carries the editable profile fields. Nil fields are left
// unchanged.
type UpdateInput struct {
	Gender           *string    `json:"gender"`
	SexualPreference *string    `json:"sexual_preference"`
	Bio              *string    `json:"bio"`
	BirthDate        *time.Time `json:"birth_date"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	LastLocation     *string    `json:"last_location"`
}

// View is the profile detail projection.
type View struct {
	UserID           uint64     `json:"user_id"`
	Username         string     `json:"username"`
	Online           bool       `json:"online"`
	LastLoginAt      time.Time  `json:"last_login_at"`
	Gender           string     `json:"gender"`
	SexualPreference string     `json:"sexual_preference"`
	Bio              string     `json:"bio"`
	BirthDate        *time.Time `json:"birth_date"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	LastLocation     string     `json:"last_location"`
	FameRating       float64    `json:"fame_rating"`
	ViewsCount       int64      `json:"views_count"`
	LikesCount       int64      `json:"likes_count"`
	MatchesCount     int64      `json:"matches_count"`
	Tags             []string   `json:"tags"`
	Photos           []db.Photo `json:"photos"`
	ProfilePicture   *string    `json:"profile_picture"`
}

// Service handles profile edits, tags and photos. Plain reads of one's
// own profile don't count views; viewing someone else's does.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	tags     *repository.TagRepository
	photos   *repository.PhotoRepository
	engine   *match.Engine
}

// NewService creates the profile service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, engine *match.Engine) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		tags:     repository.NewTagRepository(appCtx.DB),
		photos:   repository.NewPhotoRepository(appCtx.DB),
		engine:   engine,
	}
}

// Update applies a partial profile edit, creating the profile row
// lazily on first update.
func (s *Service) Update(ctx context.Context, userID uint64, in UpdateInput) (*db.Profile, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("user not found")
	}

	current, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, svcErr.Map(err)
		}
		current = &db.Profile{UserID: userID, SexualPreference: db.PrefBisexual}
	}

	if in.Gender != nil {
		current.Gender = *in.Gender
	}
	if in.SexualPreference != nil {
		current.SexualPreference = *in.SexualPreference
	}
	if in.Bio != nil {
		current.Bio = *in.Bio
	}
	if in.BirthDate != nil {
		current.BirthDate = in.BirthDate
	}
	if in.Latitude != nil {
		current.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		current.Longitude = in.Longitude
	}
	if in.LastLocation != nil {
		current.LastLocation = *in.LastLocation
	}

	if (current.Latitude == nil) != (current.Longitude == nil) {
		return nil, svcErr.Validation("latitude and longitude must be set together")
	}

	if err := s.profiles.UpsertProfile(ctx, current); err != nil {
		return nil, svcErr.Map(err)
	}
	return current, nil
}

// AddTag normalizes, creates if needed and attaches a tag.
func (s *Service) AddTag(ctx context.Context, userID uint64, name string) (*db.Tag, error) {
	tag, err := s.tags.CreateTag(ctx, name)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.tags.AttachTag(ctx, userID, tag.ID); err != nil {
		return nil, svcErr.Map(err)
	}
	return tag, nil
}

// RemoveTag detaches a tag from the user.
func (s *Service) RemoveTag(ctx context.Context, userID uint64, name string) error {
	normalized, err := repository.NormalizeTagName(name)
	if err != nil {
		return err
	}
	tag, err := s.tags.CreateTag(ctx, normalized)
	if err != nil {
		return svcErr.Map(err)
	}
	return svcErr.Map(s.tags.DetachTag(ctx, userID, tag.ID))
}

// AddPhoto stores a photo reference for the user.
func (s *Service) AddPhoto(ctx context.Context, userID uint64, path string) (*db.Photo, error) {
	if path == "" {
		return nil, svcErr.Validation("photo path must not be empty")
	}
	photo, err := s.photos.AddPhoto(ctx, userID, path)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return photo, nil
}

// SetProfilePhoto flags one photo as the profile picture.
func (s *Service) SetProfilePhoto(ctx context.Context, userID, photoID uint64) error {
	return svcErr.Map(s.photos.SetProfilePhoto(ctx, userID, photoID))
}

// DeletePhoto removes one photo.
func (s *Service) DeletePhoto(ctx context.Context, userID, photoID uint64) error {
	return svcErr.Map(s.photos.DeletePhoto(ctx, userID, photoID))
}

// Get loads a full profile view. When the viewer is someone else, the
// view is recorded: views_count increments and a profile_view
// notification goes out.
func (s *Service) Get(ctx context.Context, viewerID, targetID uint64) (*View, error) {
	user, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("user not found")
		}
		return nil, svcErr.Map(err)
	}

	view := &View{
		UserID:      user.ID,
		Username:    user.Username,
		Online:      user.Online,
		LastLoginAt: user.LastLoginAt,
	}

	p, err := s.profiles.GetProfile(ctx, targetID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, svcErr.Map(err)
	}
	if err == nil {
		view.Gender = p.Gender
		view.SexualPreference = p.SexualPreference
		view.Bio = p.Bio
		view.BirthDate = p.BirthDate
		view.Latitude = p.Latitude
		view.Longitude = p.Longitude
		view.LastLocation = p.LastLocation
		view.FameRating = p.FameRating
		view.ViewsCount = p.ViewsCount
		view.LikesCount = p.LikesCount
		view.MatchesCount = p.MatchesCount
	}

	view.Tags, err = s.tags.GetTagNames(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	view.Photos, err = s.photos.ListPhotos(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	for _, photo := range view.Photos {
		if photo.IsProfile {
			path := photo.Path
			view.ProfilePicture = &path
			break
		}
	}

	if viewerID != targetID && s.engine != nil {
		if err := s.engine.RecordView(ctx, viewerID, targetID); err != nil {
			s.appCtx.Logger.Warn("record view failed",
				"viewer", viewerID, "target", targetID, "err", err)
		}
	}

	return view, nil
}

func validateUpdate(in UpdateInput) error {
	if in.Gender != nil {
		switch *in.Gender {
		case db.GenderMale, db.GenderFemale, db.GenderOther:
		default:
			return svcErr.Validation("gender must be male, female or other")
		}
	}
	if in.SexualPreference != nil {
		switch *in.SexualPreference {
		case db.PrefHeterosexual, db.PrefHomosexual, db.PrefBisexual:
		default:
			return svcErr.Validation("sexual_preference must be heterosexual, homosexual or bisexual")
		}
	}
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		return svcErr.Validation("birth_date must be in the past")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return svcErr.Validation("latitude out of range")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return svcErr.Validation("longitude out of range")
	}
	return nil
}
