package browse

import (
	"math"
)

// Compatibility score weights. The formula is fixed-weight: when the
// distance is unknown the proximity term contributes 0 and the weight
// is NOT redistributed to the other components.
const (
	fameWeight      = 0.2
	tagWeight       = 0.5
	proximityWeight = 0.3

	// Distances at or beyond this contribute nothing to proximity.
	maxProximityKm = 100.0

	earthRadiusKm = 6371.0
)

// Distance returns the great-circle distance in kilometers between two
// coordinates, via the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// CommonTagCount returns |a ∩ b| for two tag-id sets.
func CommonTagCount(a, b []uint64) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[uint64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	count := 0
	for _, id := range b {
		if _, ok := set[id]; ok {
			count++
		}
	}
	return count
}

// Score computes the compatibility of a candidate for a viewer, in [0,1]:
//
//	0.2·(fame/100) + 0.5·(commonTags/max(|viewerTags|,1)) + 0.3·proximity
//
// where proximity is 1 − min(distance,100)/100, or 0 when the distance
// is unknown. Deterministic and side-effect-free.
func Score(viewerTagIDs, candidateTagIDs []uint64, candidateFame float64, distanceKm *float64) float64 {
	common := CommonTagCount(viewerTagIDs, candidateTagIDs)

	viewerTags := len(viewerTagIDs)
	if viewerTags == 0 {
		viewerTags = 1
	}
	tagComponent := float64(common) / float64(viewerTags)

	fameComponent := candidateFame / 100

	proximityComponent := 0.0
	if distanceKm != nil {
		proximityComponent = 1 - math.Min(*distanceKm, maxProximityKm)/maxProximityKm
	}

	return fameWeight*fameComponent + tagWeight*tagComponent + proximityWeight*proximityComponent
}
