package domain

import "context"

// BoundarySet identifies one of the two polygon collections the boundary
// source serves.
type BoundarySet string

const (
	BoundaryCountries BoundarySet = "countries"
	BoundaryUSStates  BoundarySet = "us_states"
)

// BoundarySetForGranularity maps an area-level granularity to its polygon
// collection. The second return is false for non-area granularities, where
// the choropleth builder stays idle.
func BoundarySetForGranularity(g Granularity) (BoundarySet, bool) {
	switch g {
	case GranularityState:
		return BoundaryUSStates, true
	case GranularityCountry:
		return BoundaryCountries, true
	default:
		return "", false
	}
}

// BoundaryProvider fetches boundary polygons for choropleth rendering.
// Implementations treat the fetch as an idempotent, cacheable external read;
// a failure means "no boundary data available", which callers degrade to
// marker rendering rather than surfacing an error to the user.
type BoundaryProvider interface {
	Boundaries(ctx context.Context, set BoundarySet) ([]BoundaryFeature, error)
}
