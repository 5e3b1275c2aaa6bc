package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// BoundaryFeature is one polygon from the boundary data source. Geometry is
// opaque to this package; only the property bag is inspected, read-only.
type BoundaryFeature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// EnrichedFeature is a boundary polygon tagged with the aggregate that
// matched it, ready for area-fill rendering. Unmatched polygons are kept
// with HasData=false so the renderer can distinguish "no data" from "zero".
type EnrichedFeature struct {
	Geometry    json.RawMessage `json:"geometry"`
	Properties  map[string]any  `json:"properties"`
	DisplayName string          `json:"display_name"`
	Value       float64         `json:"value"`
	Ratio       float64         `json:"ratio"`
	Count       int             `json:"count"`
	HasData     bool            `json:"has_data"`
	FillColor   string          `json:"fill_color"`
}

// neutralColor fills polygons with no matching region.
const neutralColor = "#d0d0d0"

// colorStop pairs a minimum value ratio with a fill color.
type colorStop struct {
	threshold float64
	color     string
}

// colorStops is the fixed choropleth ramp, applied in descending-threshold
// order: the first stop whose threshold the ratio meets or exceeds wins.
// Shared by the marker renderer via ColorForValue so both encodings agree.
var colorStops = []colorStop{
	{0.8, "#800026"},
	{0.6, "#bd0026"},
	{0.4, "#e31a1c"},
	{0.2, "#fc4e2a"},
	{0.1, "#fd8d3c"},
	{0.05, "#feb24c"},
	{0.0, "#ffeda0"},
}

// countryNameKeys and stateNameKeys are the candidate property names for a
// boundary polygon's display name, in priority order, matching the two
// external schemas the boundary source serves.
var (
	countryNameKeys = []string{"ADMIN", "name", "NAME_LONG"}
	stateNameKeys   = []string{"name", "NAME", "STUSPS"}
)

// BuildChoropleth matches aggregated regions onto boundary polygons and
// assigns fill colors. Only meaningful for state or country granularity;
// other granularities yield every polygon unmatched. The full input feature
// set is always returned, matched or not. Calling twice with identical
// inputs yields identical output.
func BuildChoropleth(regions []Region, granularity Granularity, features []BoundaryFeature) []EnrichedFeature {
	lookup := regionLookup(regions, granularity)

	maxValue := 1.0
	for _, r := range regions {
		if r.TotalValue > maxValue {
			maxValue = r.TotalValue
		}
	}

	nameKeys := countryNameKeys
	if granularity == GranularityState {
		nameKeys = stateNameKeys
	}

	out := make([]EnrichedFeature, 0, len(features))
	for _, f := range features {
		enriched := EnrichedFeature{
			Geometry:   f.Geometry,
			Properties: f.Properties,
			FillColor:  neutralColor,
		}
		enriched.DisplayName = featureName(f.Properties, nameKeys)

		if region, ok := lookup[normalizeName(enriched.DisplayName)]; ok && granularity.AreaLevel() {
			enriched.Value = region.TotalValue
			enriched.Ratio = region.TotalValue / maxValue
			enriched.Count = region.Count
			enriched.HasData = true
			enriched.FillColor = colorForRatio(enriched.Ratio)
		}
		out = append(out, enriched)
	}
	return out
}

// regionLookup indexes regions by normalized display name. For state
// granularity each US state's postal abbreviation is registered as an alias
// for the same region, so polygons keyed by state code still match.
func regionLookup(regions []Region, granularity Granularity) map[string]*Region {
	lookup := make(map[string]*Region, len(regions))
	for i := range regions {
		region := &regions[i]
		name := normalizeName(region.Name)
		lookup[name] = region
		if granularity == GranularityState {
			if abbrev, ok := usStateAbbreviations[name]; ok {
				lookup[abbrev] = region
			}
		}
	}
	return lookup
}

// featureName derives a polygon's display name from the first candidate
// property that holds a non-empty string.
func featureName(properties map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := properties[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func colorForRatio(ratio float64) string {
	for _, stop := range colorStops {
		if ratio >= stop.threshold {
			return stop.color
		}
	}
	return neutralColor
}

// ColorForValue maps an aggregate value to a fill color relative to the
// maximum value in view. Used identically by the marker and choropleth
// renderers so visual encoding is consistent across granularities.
func ColorForValue(value, maxValue float64) string {
	if maxValue < 1 {
		maxValue = 1
	}
	return colorForRatio(value / maxValue)
}

// MarkerSizeForValue maps an aggregate value to a marker radius in pixels,
// scaled by the square root of the value ratio so area tracks value.
func MarkerSizeForValue(value, maxValue float64) float64 {
	if maxValue < 1 {
		maxValue = 1
	}
	ratio := value / maxValue
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	const minRadius, maxRadius = 4.0, 24.0
	return minRadius + (maxRadius-minRadius)*math.Sqrt(ratio)
}
