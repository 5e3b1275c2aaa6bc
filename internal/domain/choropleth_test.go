package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundaryFeature(props map[string]any) BoundaryFeature {
	return BoundaryFeature{
		Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[]}`),
		Properties: props,
	}
}

func TestBuildChoropleth_StateMatchByNameAndCode(t *testing.T) {
	regions := []Region{
		{Key: "texas", Name: "Texas", TotalValue: 500, Count: 3},
	}
	features := []BoundaryFeature{
		boundaryFeature(map[string]any{"name": "Texas"}),
		boundaryFeature(map[string]any{"STUSPS": "TX"}),
	}

	out := BuildChoropleth(regions, GranularityState, features)
	require.Len(t, out, 2)

	for _, f := range out {
		assert.True(t, f.HasData)
		assert.Equal(t, 500.0, f.Value)
		assert.Equal(t, 3, f.Count)
		// Single region: its value is the max, ratio 1.0, top of the ramp.
		assert.Equal(t, 1.0, f.Ratio)
		assert.Equal(t, "#800026", f.FillColor)
	}
}

func TestBuildChoropleth_UnmatchedKeptNeutral(t *testing.T) {
	regions := []Region{{Key: "texas", Name: "Texas", TotalValue: 500}}
	features := []BoundaryFeature{
		boundaryFeature(map[string]any{"name": "Texas"}),
		boundaryFeature(map[string]any{"name": "Montana"}),
	}

	out := BuildChoropleth(regions, GranularityState, features)
	require.Len(t, out, 2)

	montana := out[1]
	assert.Equal(t, "Montana", montana.DisplayName)
	assert.False(t, montana.HasData)
	assert.Equal(t, 0.0, montana.Value)
	assert.Equal(t, neutralColor, montana.FillColor)
}

func TestBuildChoropleth_CountryMatchCaseInsensitive(t *testing.T) {
	regions := []Region{
		{Key: "united states", Name: "united states", TotalValue: 900},
		{Key: "france", Name: "France", TotalValue: 100},
	}
	features := []BoundaryFeature{
		boundaryFeature(map[string]any{"ADMIN": "United States"}),
		boundaryFeature(map[string]any{"ADMIN": "France"}),
	}

	out := BuildChoropleth(regions, GranularityCountry, features)
	require.Len(t, out, 2)

	assert.True(t, out[0].HasData)
	assert.Equal(t, 900.0, out[0].Value)
	assert.Equal(t, 1.0, out[0].Ratio)

	assert.True(t, out[1].HasData)
	assert.InDelta(t, 100.0/900.0, out[1].Ratio, 1e-9)
	assert.Equal(t, "#fd8d3c", out[1].FillColor)
}

func TestBuildChoropleth_PropertyKeyPriority(t *testing.T) {
	// ADMIN outranks name for countries even when both are present.
	features := []BoundaryFeature{
		boundaryFeature(map[string]any{"ADMIN": "Germany", "name": "Deutschland"}),
		boundaryFeature(map[string]any{"ADMIN": "  ", "name": "Italy"}),
		boundaryFeature(map[string]any{"NAME_LONG": "Kingdom of Spain"}),
	}

	out := BuildChoropleth(nil, GranularityCountry, features)
	require.Len(t, out, 3)
	assert.Equal(t, "Germany", out[0].DisplayName)
	assert.Equal(t, "Italy", out[1].DisplayName)
	assert.Equal(t, "Kingdom of Spain", out[2].DisplayName)
}

func TestBuildChoropleth_NonAreaGranularityMatchesNothing(t *testing.T) {
	regions := []Region{{Key: "texas", Name: "Texas", TotalValue: 500}}
	features := []BoundaryFeature{boundaryFeature(map[string]any{"name": "Texas"})}

	out := BuildChoropleth(regions, GranularityCity, features)
	require.Len(t, out, 1)
	assert.False(t, out[0].HasData)
	assert.Equal(t, neutralColor, out[0].FillColor)
}

func TestBuildChoropleth_Deterministic(t *testing.T) {
	regions := []Region{
		{Key: "texas", Name: "Texas", TotalValue: 500, Count: 2},
		{Key: "florida", Name: "Florida", TotalValue: 250, Count: 1},
	}
	features := []BoundaryFeature{
		boundaryFeature(map[string]any{"name": "Texas"}),
		boundaryFeature(map[string]any{"name": "Florida"}),
		boundaryFeature(map[string]any{"name": "Ohio"}),
	}

	first := BuildChoropleth(regions, GranularityState, features)
	second := BuildChoropleth(regions, GranularityState, features)
	assert.Equal(t, first, second)
}

func TestColorForValue(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		maxValue float64
		want     string
	}{
		{"top bucket", 100, 100, "#800026"},
		{"eighty percent boundary", 80, 100, "#800026"},
		{"mid ramp", 50, 100, "#e31a1c"},
		{"bottom bucket", 1, 100, "#ffeda0"},
		{"zero value", 0, 100, "#ffeda0"},
		{"zero max clamps to one", 5, 0, "#800026"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ColorForValue(tc.value, tc.maxValue))
		})
	}
}

func TestMarkerSizeForValue(t *testing.T) {
	assert.Equal(t, 4.0, MarkerSizeForValue(0, 100))
	assert.Equal(t, 24.0, MarkerSizeForValue(100, 100))
	assert.Equal(t, 14.0, MarkerSizeForValue(25, 100))

	// Out-of-range ratios clamp rather than extrapolate.
	assert.Equal(t, 24.0, MarkerSizeForValue(500, 100))
	assert.Equal(t, 4.0, MarkerSizeForValue(-10, 100))
}
