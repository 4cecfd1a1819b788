package browse

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/utils/pagination"
)

// Sort keys accepted by Search.
const (
	SortAge           = "age"
	SortDistance      = "distance"
	SortFame          = "fame"
	SortTags          = "tags"
	SortCompatibility = "compatibility"
)

// ErrProfileIncomplete is returned when the viewer has not set gender
// and sexual preference yet; browsing needs both to build the
// eligibility filter.
var ErrProfileIncomplete = svcErr.Precondition("complete your profile before browsing")

// Candidate is one scored entry of the browse output.
type Candidate struct {
	UserID           uint64      `json:"user_id"`
	Username         string      `json:"username"`
	Online           bool        `json:"online"`
	LastLoginAt      time.Time   `json:"last_login_at"`
	Gender           string      `json:"gender"`
	SexualPreference string      `json:"sexual_preference"`
	Bio              string      `json:"bio"`
	Age              *int        `json:"age"`
	LastLocation     string      `json:"last_location"`
	FameRating       float64     `json:"fame_rating"`
	DistanceKm       *float64    `json:"distance_km"`
	CommonTags       int         `json:"common_tags"`
	Score            float64     `json:"score"`
	IsLiked          bool        `json:"is_liked"`
	IsMatch          bool        `json:"is_match"`
	MatchID          *uint64     `json:"match_id"`
	Tags             []string    `json:"tags"`
	Photos           []PhotoView `json:"photos"`
	ProfilePicture   *string     `json:"profile_picture"`
}

// PhotoView is the photo projection included per candidate.
type PhotoView struct {
	ID        uint64 `json:"id"`
	Path      string `json:"path"`
	IsProfile bool   `json:"is_profile"`
}

// SearchFilters narrows the candidate pool in Search. Tag filtering
// uses AND semantics: candidates must hold every requested tag.
type SearchFilters struct {
	AgeMin   *int
	AgeMax   *int
	FameMin  *float64
	FameMax  *float64
	Location string
	Tags     []string
}

// Sort selects the ordering of Search results.
type Sort struct {
	By   string
	Desc bool
}

// SearchResult is one page of Search output.
type SearchResult struct {
	Candidates []Candidate `json:"candidates"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageCount  int         `json:"page_count"`
}

// Service is the candidate-selection pipeline: eligibility filter,
// exclusion sets, scoring, sorting, pagination. Read-only over the
// store; safe for unlimited concurrent use.
type Service struct {
	appCtx       *app.AppContext
	profileRepo  *repository.ProfileRepository
	tagRepo      *repository.TagRepository
	interactRepo *repository.InteractionRepository
	photoRepo    *repository.PhotoRepository
}

// NewService creates the browse service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		tagRepo:      repository.NewTagRepository(appCtx.DB),
		interactRepo: repository.NewInteractionRepository(appCtx.DB),
		photoRepo:    repository.NewPhotoRepository(appCtx.DB),
	}
}

// Suggestions returns the viewer's eligible candidate pool ordered by
// compatibility score descending.
func (s *Service) Suggestions(ctx context.Context, viewerID uint64) ([]Candidate, error) {
	candidates, err := s.assemble(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UserID < candidates[j].UserID
	})

	s.appCtx.Logger.Debug("suggestions computed", "viewer", viewerID, "count", len(candidates))
	return candidates, nil
}

// Search applies the extra filters and requested ordering on top of the
// eligible pool, then paginates with a 1-based page index.
func (s *Service) Search(
	ctx context.Context,
	viewerID uint64,
	filters SearchFilters,
	sortBy Sort,
	page pagination.Page,
) (*SearchResult, error) {
	if sortBy.By == "" {
		sortBy.By = SortCompatibility
		sortBy.Desc = true
	}
	if !validSortKey(sortBy.By) {
		return nil, svcErr.Validation("unknown sort key: " + sortBy.By)
	}
	page = page.Normalize(s.appCtx.Config.Browse.PageSize, s.appCtx.Config.Browse.MaxPageSize)

	candidates, err := s.assemble(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	candidates, err = s.applyFilters(ctx, candidates, filters)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates, sortBy)

	total := len(candidates)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	s.appCtx.Logger.Debug("search computed",
		"viewer", viewerID, "total", total, "page", page.Number, "sort", sortBy.By)

	return &SearchResult{
		Candidates: candidates[start:end],
		Total:      total,
		Page:       page.Number,
		PageCount:  pagination.PageCount(total, page.Limit),
	}, nil
}

// assemble builds the scored, decorated candidate pool shared by
// Suggestions and Search.
func (s *Service) assemble(ctx context.Context, viewerID uint64) ([]Candidate, error) {
	viewer, err := s.profileRepo.GetProfile(ctx, viewerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProfileIncomplete
		}
		return nil, svcErr.Map(err)
	}
	if viewer.Gender == "" || viewer.SexualPreference == "" {
		return nil, ErrProfileIncomplete
	}

	genders, preferences := eligibilityFor(viewer.Gender, viewer.SexualPreference)

	blocked, err := s.interactRepo.BlockedIDs(ctx, viewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	exclude := append([]uint64{viewerID}, blocked...)

	rows, err := s.profileRepo.ListCandidates(ctx, exclude, genders, preferences)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if len(rows) == 0 {
		return []Candidate{}, nil
	}

	candidateIDs := make([]uint64, len(rows))
	for i, row := range rows {
		candidateIDs[i] = row.UserID
	}

	viewerTagIDs, err := s.tagRepo.GetTagIDs(ctx, viewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	tagIDSets, err := s.tagRepo.TagIDsByUserIDs(ctx, candidateIDs)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	tagNames, err := s.tagRepo.TagNamesByUserIDs(ctx, candidateIDs)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	likedIDs, err := s.interactRepo.LikedIDs(ctx, viewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	likedSet := make(map[uint64]struct{}, len(likedIDs))
	for _, id := range likedIDs {
		likedSet[id] = struct{}{}
	}
	matchIDs, err := s.interactRepo.MatchIDsByUser(ctx, viewerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	photos, err := s.photoRepo.PhotosByUserIDs(ctx, candidateIDs)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	now := time.Now().UTC()
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		c := Candidate{
			UserID:           row.UserID,
			Username:         row.Username,
			Online:           row.Online,
			LastLoginAt:      row.LastLoginAt,
			Gender:           row.Gender,
			SexualPreference: row.SexualPreference,
			Bio:              row.Bio,
			Age:              ageOf(row.BirthDate, now),
			LastLocation:     row.LastLocation,
			FameRating:       row.FameRating,
			Tags:             tagNames[row.UserID],
		}

		if bothLocated(viewer, row) {
			d := Distance(*viewer.Latitude, *viewer.Longitude, *row.Latitude, *row.Longitude)
			c.DistanceKm = &d
		}

		c.CommonTags = CommonTagCount(viewerTagIDs, tagIDSets[row.UserID])
		c.Score = Score(viewerTagIDs, tagIDSets[row.UserID], row.FameRating, c.DistanceKm)

		if _, ok := likedSet[row.UserID]; ok {
			c.IsLiked = true
		}
		if matchID, ok := matchIDs[row.UserID]; ok {
			c.IsMatch = true
			id := matchID
			c.MatchID = &id
		}

		for _, p := range photos[row.UserID] {
			c.Photos = append(c.Photos, PhotoView{ID: p.ID, Path: p.Path, IsProfile: p.IsProfile})
			if p.IsProfile && c.ProfilePicture == nil {
				path := p.Path
				c.ProfilePicture = &path
			}
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

func (s *Service) applyFilters(ctx context.Context, candidates []Candidate, f SearchFilters) ([]Candidate, error) {
	var withAllTags map[uint64]struct{}
	if len(f.Tags) > 0 {
		names := make([]string, 0, len(f.Tags))
		for _, raw := range f.Tags {
			name, err := repository.NormalizeTagName(raw)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		ids, err := s.tagRepo.UserIDsWithAllTags(ctx, names)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		withAllTags = make(map[uint64]struct{}, len(ids))
		for _, id := range ids {
			withAllTags[id] = struct{}{}
		}
	}

	location := strings.ToLower(strings.TrimSpace(f.Location))

	filtered := candidates[:0]
	for _, c := range candidates {
		if f.AgeMin != nil && (c.Age == nil || *c.Age < *f.AgeMin) {
			continue
		}
		if f.AgeMax != nil && (c.Age == nil || *c.Age > *f.AgeMax) {
			continue
		}
		if f.FameMin != nil && c.FameRating < *f.FameMin {
			continue
		}
		if f.FameMax != nil && c.FameRating > *f.FameMax {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(c.LastLocation), location) {
			continue
		}
		if withAllTags != nil {
			if _, ok := withAllTags[c.UserID]; !ok {
				continue
			}
		}
		filtered = append(filtered, c)
	}
	return filtered, nil
}

// eligibilityFor derives the symmetric compatibility filter from the
// viewer's gender and sexual preference. Empty slices mean no
// restriction on that axis.
func eligibilityFor(gender, preference string) (genders, preferences []string) {
	if gender == "" || preference == "" {
		// should not occur given the completed-profile precondition
		return nil, nil
	}

	switch preference {
	case db.PrefHeterosexual:
		switch gender {
		case db.GenderMale:
			return []string{db.GenderFemale}, []string{db.PrefHeterosexual, db.PrefBisexual}
		case db.GenderFemale:
			return []string{db.GenderMale}, []string{db.PrefHeterosexual, db.PrefBisexual}
		}
	case db.PrefHomosexual:
		switch gender {
		case db.GenderMale:
			return []string{db.GenderMale}, []string{db.PrefHomosexual, db.PrefBisexual}
		case db.GenderFemale:
			return []string{db.GenderFemale}, []string{db.PrefHomosexual, db.PrefBisexual}
		}
	}
	// bisexual viewers, and genders outside the table, see everyone
	return nil, nil
}

func validSortKey(key string) bool {
	switch key {
	case SortAge, SortDistance, SortFame, SortTags, SortCompatibility:
		return true
	}
	return false
}

// sortCandidates orders the pool by the requested key. Candidates with
// a null sort value (unknown age or distance) always sort last,
// regardless of direction.
func sortCandidates(candidates []Candidate, by Sort) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, aNull := sortValue(candidates[i], by.By)
		b, bNull := sortValue(candidates[j], by.By)

		if aNull != bNull {
			return bNull // non-null before null
		}
		if aNull {
			return candidates[i].UserID < candidates[j].UserID
		}
		if a != b {
			if by.Desc {
				return a > b
			}
			return a < b
		}
		return candidates[i].UserID < candidates[j].UserID
	})
}

func sortValue(c Candidate, key string) (value float64, null bool) {
	switch key {
	case SortAge:
		if c.Age == nil {
			return 0, true
		}
		return float64(*c.Age), false
	case SortDistance:
		if c.DistanceKm == nil {
			return 0, true
		}
		return *c.DistanceKm, false
	case SortFame:
		return c.FameRating, false
	case SortTags:
		return float64(c.CommonTags), false
	default: // compatibility
		return c.Score, false
	}
}

func ageOf(birth *time.Time, now time.Time) *int {
	if birth == nil {
		return nil
	}
	years := now.Year() - birth.Year()
	anniversary := time.Date(now.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	if now.Before(anniversary) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

func bothLocated(viewer *db.Profile, row repository.CandidateRow) bool {
	return viewer.Latitude != nil && viewer.Longitude != nil &&
		row.Latitude != nil && row.Longitude != nil
}
