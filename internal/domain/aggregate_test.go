package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func sampleRecords() []Record {
	return []Record{
		{ID: "r1", Lat: 29.76, Lon: -95.36, Value: 100, Category: "Commercial", City: "Houston", State: "Texas", Country: "USA", PostalCode: "77002"},
		{ID: "r2", Lat: 29.74, Lon: -95.38, Value: 200, Category: "Residential", City: "Houston", State: "Texas", Country: "USA", PostalCode: "77006"},
		{ID: "r3", Lat: 25.77, Lon: -80.19, Value: 300, Category: "Commercial", City: "Miami", State: "Florida", Country: "USA", PostalCode: "33101"},
		{ID: "r4", Lat: 51.51, Lon: -0.13, Value: 400, Category: "Industrial", City: "London", Country: "UK"},
	}
}

func regionByName(t *testing.T, regions []Region, name string) Region {
	t.Helper()
	for _, r := range regions {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no region named %q", name)
	return Region{}
}

func TestApplyFilter_ValueRange(t *testing.T) {
	filtered := ApplyFilter(sampleRecords(), Filter{MinValue: floatPtr(150), MaxValue: floatPtr(350)})

	require.Len(t, filtered, 2)
	assert.Equal(t, "r2", filtered[0].ID)
	assert.Equal(t, "r3", filtered[1].ID)
}

func TestApplyFilter_CombinesWithAND(t *testing.T) {
	filtered := ApplyFilter(sampleRecords(), Filter{
		MinValue:   floatPtr(150),
		Categories: []string{"Commercial"},
	})

	require.Len(t, filtered, 1)
	assert.Equal(t, "r3", filtered[0].ID)
}

func TestApplyFilter_StateAndCountryCaseInsensitive(t *testing.T) {
	byState := ApplyFilter(sampleRecords(), Filter{States: []string{"texas"}})
	require.Len(t, byState, 2)

	byCountry := ApplyFilter(sampleRecords(), Filter{Countries: []string{"uk"}})
	require.Len(t, byCountry, 1)
	assert.Equal(t, "r4", byCountry[0].ID)
}

func TestApplyFilter_EmptyFilterPassesEverything(t *testing.T) {
	records := sampleRecords()
	assert.Equal(t, records, ApplyFilter(records, Filter{}))
}

func TestAggregate_CityGranularity(t *testing.T) {
	regions := Aggregate(sampleRecords(), GranularityCity, Filter{})
	require.Len(t, regions, 3)

	houston := regionByName(t, regions, "Houston")
	assert.Equal(t, 300.0, houston.TotalValue)
	assert.Equal(t, 2, houston.Count)
	assert.InDelta(t, 29.75, houston.CentroidLat, 1e-9)
	assert.InDelta(t, -95.37, houston.CentroidLon, 1e-9)

	require.NotNil(t, houston.Bounds)
	assert.Equal(t, 29.74, houston.Bounds.MinLat)
	assert.Equal(t, 29.76, houston.Bounds.MaxLat)
	assert.Equal(t, -95.38, houston.Bounds.MinLon)
	assert.Equal(t, -95.36, houston.Bounds.MaxLon)

	miami := regionByName(t, regions, "Miami")
	assert.Nil(t, miami.Bounds, "single-member regions carry no bounding box")
}

func TestAggregate_LocationGranularity_OneRegionPerRecord(t *testing.T) {
	regions := Aggregate(sampleRecords(), GranularityLocation, Filter{})
	assert.Len(t, regions, 4)
}

func TestAggregate_MissingGeographyFallsBackPerRecord(t *testing.T) {
	// r4 has no state; it must survive state aggregation under its own key
	// rather than being dropped or merged into another region.
	regions := Aggregate(sampleRecords(), GranularityState, Filter{})
	require.Len(t, regions, 3)

	var fallback *Region
	for i := range regions {
		if regions[i].Key == "loc_r4" {
			fallback = &regions[i]
		}
	}
	require.NotNil(t, fallback, "record without state should get a synthetic key")
	assert.Equal(t, 1, fallback.Count)
	assert.Equal(t, 400.0, fallback.TotalValue)
}

func TestAggregate_GridGranularity(t *testing.T) {
	records := []Record{
		{ID: "a", Lat: 29.76, Lon: -95.36, Value: 10},
		{ID: "b", Lat: 29.90, Lon: -95.10, Value: 20}, // same 0.5° cell as a
		{ID: "c", Lat: 30.10, Lon: -95.36, Value: 30}, // different cell
	}

	regions := Aggregate(records, GranularityGrid, Filter{})
	require.Len(t, regions, 2)

	cell := regionByName(t, regions, "grid_29.5_-95.5")
	assert.Equal(t, 30.0, cell.TotalValue)
	assert.Equal(t, 2, cell.Count)
}

func TestAggregate_GridKeyIndependentOfInsertionOrder(t *testing.T) {
	a := Record{ID: "a", Lat: 40.2, Lon: -74.1, Value: 1}
	b := Record{ID: "b", Lat: 40.4, Lon: -74.3, Value: 2}

	forward := Aggregate([]Record{a, b}, GranularityGrid, Filter{})
	reversed := Aggregate([]Record{b, a}, GranularityGrid, Filter{})

	require.Len(t, forward, 1)
	require.Len(t, reversed, 1)
	assert.Equal(t, forward[0].Key, reversed[0].Key)
	assert.Equal(t, forward[0].TotalValue, reversed[0].TotalValue)
}

func TestAggregate_RegionValuesSumToDatasetTotal(t *testing.T) {
	records := sampleRecords()
	var total float64
	for _, r := range records {
		total += r.Value
	}

	granularities := []Granularity{
		GranularityLocation, GranularityPostal, GranularityCity,
		GranularityCounty, GranularityState, GranularityCountry, GranularityGrid,
	}
	for _, g := range granularities {
		regions := Aggregate(records, g, Filter{})
		var sum float64
		for _, r := range regions {
			sum += r.TotalValue
		}
		assert.Equal(t, total, sum, "granularity %s", g)
	}
}

func TestAggregate_MetropolisScenario(t *testing.T) {
	records := []Record{
		{ID: "m1", Lat: 40.0, Lon: -75.0, Value: 100, City: "Metropolis"},
		{ID: "m2", Lat: 40.1, Lon: -75.1, Value: 200, City: "Metropolis"},
		{ID: "m3", Lat: 40.2, Lon: -75.2, Value: 300, City: "Metropolis"},
	}

	regions := Aggregate(records, GranularityCity, Filter{})
	require.Len(t, regions, 1)
	assert.Equal(t, "Metropolis", regions[0].Name)
	assert.Equal(t, 600.0, regions[0].TotalValue)
	assert.Equal(t, 3, regions[0].Count)
}

func TestParseGranularity_FallsBackToLocation(t *testing.T) {
	assert.Equal(t, GranularityLocation, ParseGranularity("bogus"))
	assert.Equal(t, GranularityLocation, ParseGranularity(""))
	assert.Equal(t, GranularityGrid, ParseGranularity("grid"))
	assert.Equal(t, GranularityState, ParseGranularity("state"))
}

func TestDisplayName_Priority(t *testing.T) {
	assert.Equal(t, "1 Main St", DisplayName(Record{Address: "1 Main St", City: "Houston", Lat: 1, Lon: 2}))
	assert.Equal(t, "Houston", DisplayName(Record{City: "Houston", Lat: 1, Lon: 2}))
	assert.Equal(t, "29.7600, -95.3600", DisplayName(Record{Lat: 29.76, Lon: -95.36}))
}
