package domain

import "time"

// Record is one insured location. Immutable once imported; monetary value is
// non-negative and denominated in the owning Dataset's currency.
type Record struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Value       float64 `json:"value"`
	Category    string  `json:"category,omitempty"`
	Subcategory string  `json:"subcategory,omitempty"`
	Address     string  `json:"address,omitempty"`
	City        string  `json:"city,omitempty"`
	County      string  `json:"county,omitempty"`
	State       string  `json:"state,omitempty"`
	Country     string  `json:"country,omitempty"`
	PostalCode  string  `json:"postal_code,omitempty"`
}

// Dataset is a named, immutable collection of records with a precomputed
// total. At most one dataset is active at a time; activation is owned by the
// store, not by the dataset itself.
type Dataset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Currency   string    `json:"currency"`
	Records    []Record  `json:"records"`
	TotalValue float64   `json:"total_value"`
	CreatedAt  time.Time `json:"created_at"`
}

// Granularity selects the geographic resolution for aggregation.
type Granularity string

const (
	GranularityLocation Granularity = "location"
	GranularityPostal   Granularity = "postal"
	GranularityCity     Granularity = "city"
	GranularityCounty   Granularity = "county"
	GranularityState    Granularity = "state"
	GranularityCountry  Granularity = "country"
	GranularityGrid     Granularity = "grid"
)

// ParseGranularity validates a granularity string. Unrecognized values fall
// back to location-level aggregation rather than erroring.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityPostal, GranularityCity, GranularityCounty,
		GranularityState, GranularityCountry, GranularityGrid:
		return Granularity(s)
	default:
		return GranularityLocation
	}
}

// AreaLevel reports whether the granularity maps onto named boundary
// polygons. Only area-level granularities feed the choropleth builder.
func (g Granularity) AreaLevel() bool {
	return g == GranularityState || g == GranularityCountry
}

// Filter is an optional predicate set applied before aggregation and
// statistics. All set fields combine with logical AND; nil/empty fields
// pass everything. The filter never mutates the dataset.
type Filter struct {
	MinValue   *float64 `json:"min_value,omitempty"`
	MaxValue   *float64 `json:"max_value,omitempty"`
	Categories []string `json:"categories,omitempty"`
	States     []string `json:"states,omitempty"`
	Countries  []string `json:"countries,omitempty"`
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.MinValue == nil && f.MaxValue == nil &&
		len(f.Categories) == 0 && len(f.States) == 0 && len(f.Countries) == 0
}

// Bounds is an axis-aligned bounding box over member coordinates.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Region is one aggregation bucket: the summed value and arithmetic-mean
// centroid of the member records sharing a grouping key. Bounds is set only
// when the region has more than one member. Regions are rebuilt from scratch
// on every aggregation pass.
type Region struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	CentroidLat float64 `json:"centroid_lat"`
	CentroidLon float64 `json:"centroid_lon"`
	TotalValue  float64 `json:"total_value"`
	Count       int     `json:"count"`
	Bounds      *Bounds `json:"bounds,omitempty"`
}
