package match

import (
	"math"

	"github.com/emberapp/ember-server/internal/config"
)

// FameConfig holds the weights and saturation divisors of the
// fame-rating formula. The defaults are empirical; they live in config
// rather than in code.
type FameConfig struct {
	ViewsWeight    float64
	LikesWeight    float64
	MatchesWeight  float64
	ViewsDivisor   float64
	LikesDivisor   float64
	MatchesDivisor float64
}

// FameConfigFrom extracts the fame knobs from app config.
func FameConfigFrom(cfg *config.Config) FameConfig {
	return FameConfig{
		ViewsWeight:    cfg.Fame.ViewsWeight,
		LikesWeight:    cfg.Fame.LikesWeight,
		MatchesWeight:  cfg.Fame.MatchesWeight,
		ViewsDivisor:   cfg.Fame.ViewsDivisor,
		LikesDivisor:   cfg.Fame.LikesDivisor,
		MatchesDivisor: cfg.Fame.MatchesDivisor,
	}
}

// FameRating derives the 0–100 popularity rating from the profile
// counters. Each counter is normalized against its divisor and capped
// at 100, then the weighted sum is rounded. Pure function.
func FameRating(fc FameConfig, views, likes, matches int64) float64 {
	nv := normalize(views, fc.ViewsDivisor)
	nl := normalize(likes, fc.LikesDivisor)
	nm := normalize(matches, fc.MatchesDivisor)

	rating := math.Round(fc.ViewsWeight*nv + fc.LikesWeight*nl + fc.MatchesWeight*nm)
	return math.Min(100, math.Max(0, rating))
}

func normalize(count int64, divisor float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return math.Min(100, float64(count)/divisor*100)
}
