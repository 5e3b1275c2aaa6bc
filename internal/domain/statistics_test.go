package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics_EmptyInput(t *testing.T) {
	snapshot := ComputeStatistics(nil, "USD")

	assert.Equal(t, 0, snapshot.TotalRecords)
	assert.Equal(t, 0.0, snapshot.TotalValue)
	assert.Equal(t, 0.0, snapshot.AverageValue)
	assert.Equal(t, 0.0, snapshot.MedianValue)
	assert.Equal(t, 0.0, snapshot.MinValue)
	assert.Equal(t, 0.0, snapshot.MaxValue)
	assert.Empty(t, snapshot.Categories)
	assert.Empty(t, snapshot.States)
	assert.Empty(t, snapshot.Concentrations)
}

func TestComputeStatistics_MetropolisScenario(t *testing.T) {
	records := []Record{
		{ID: "m1", Value: 100, City: "Metropolis"},
		{ID: "m2", Value: 200, City: "Metropolis"},
		{ID: "m3", Value: 300, City: "Metropolis"},
	}

	snapshot := ComputeStatistics(records, "USD")

	assert.Equal(t, 3, snapshot.TotalRecords)
	assert.Equal(t, 600.0, snapshot.TotalValue)
	assert.Equal(t, 200.0, snapshot.AverageValue)
	assert.Equal(t, 200.0, snapshot.MedianValue)
	assert.Equal(t, 100.0, snapshot.MinValue)
	assert.Equal(t, 300.0, snapshot.MaxValue)
	assert.Equal(t, "USD", snapshot.Currency)
}

func TestComputeStatistics_MedianEvenCount_LowerMiddle(t *testing.T) {
	records := []Record{
		{ID: "a", Value: 10},
		{ID: "b", Value: 20},
		{ID: "c", Value: 30},
		{ID: "d", Value: 40},
	}

	snapshot := ComputeStatistics(records, "USD")

	// Lower-middle element, not the 25.0 an interpolating median would give.
	assert.Equal(t, 20.0, snapshot.MedianValue)
}

func TestComputeStatistics_CategoryBreakdown(t *testing.T) {
	records := []Record{
		{ID: "a", Value: 500, Category: "Commercial"},
		{ID: "b", Value: 300, Category: "Residential"},
		{ID: "c", Value: 200},
	}

	snapshot := ComputeStatistics(records, "USD")
	require.Len(t, snapshot.Categories, 3)

	// Ordered by value descending.
	assert.Equal(t, "Commercial", snapshot.Categories[0].Name)
	assert.Equal(t, 50.0, snapshot.Categories[0].Percentage)
	assert.Equal(t, "Residential", snapshot.Categories[1].Name)
	assert.Equal(t, "Unknown", snapshot.Categories[2].Name)
	assert.Equal(t, 200.0, snapshot.Categories[2].Value)

	var valueSum, pctSum float64
	for _, b := range snapshot.Categories {
		valueSum += b.Value
		pctSum += b.Percentage
	}
	assert.Equal(t, snapshot.TotalValue, valueSum)
	assert.InDelta(t, 100.0, pctSum, 1e-9)
}

func TestComputeStatistics_StatelessRecordsExcludedFromStateBreakdown(t *testing.T) {
	records := []Record{
		{ID: "a", Value: 100, State: "Texas"},
		{ID: "b", Value: 200},
	}

	snapshot := ComputeStatistics(records, "USD")
	require.Len(t, snapshot.States, 1)
	assert.Equal(t, "Texas", snapshot.States[0].Name)
	assert.Equal(t, 100.0, snapshot.States[0].Value)
	// Percentage denominator is the full filtered total, not the state subtotal.
	assert.InDelta(t, 100.0/300.0*100, snapshot.States[0].Percentage, 1e-9)
}

func TestComputeStatistics_StateBreakdownCaseInsensitive(t *testing.T) {
	// Filtering and aggregation treat the state field case-insensitively;
	// the breakdown must merge casings too, keeping first-seen for display.
	records := []Record{
		{ID: "a", Value: 100, State: "TX"},
		{ID: "b", Value: 200, State: "tx"},
		{ID: "c", Value: 300, State: "FL"},
	}

	snapshot := ComputeStatistics(records, "USD")
	require.Len(t, snapshot.States, 2)
	assert.Equal(t, "TX", snapshot.States[0].Name)
	assert.Equal(t, 300.0, snapshot.States[0].Value)
	assert.Equal(t, 2, snapshot.States[0].Count)
	assert.Equal(t, "FL", snapshot.States[1].Name)
}

func TestComputeStatistics_ConcentrationRanking(t *testing.T) {
	records := make([]Record, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, Record{
			ID:    fmt.Sprintf("r%d", i),
			Value: float64(100 * (i + 1)),
			City:  fmt.Sprintf("City %d", i),
		})
	}

	snapshot := ComputeStatistics(records, "USD")
	require.Len(t, snapshot.Concentrations, 10)

	for i := 1; i < len(snapshot.Concentrations); i++ {
		assert.GreaterOrEqual(t,
			snapshot.Concentrations[i-1].Value,
			snapshot.Concentrations[i].Value,
			"ranking must be descending",
		)
	}
	assert.Equal(t, "r14", snapshot.Concentrations[0].RecordID)
	assert.Equal(t, "City 14", snapshot.Concentrations[0].Name)
}

func TestComputeStatistics_ConcentrationTiesKeepInputOrder(t *testing.T) {
	records := []Record{
		{ID: "first", Value: 100, City: "A"},
		{ID: "second", Value: 100, City: "B"},
		{ID: "third", Value: 100, City: "C"},
	}

	snapshot := ComputeStatistics(records, "USD")
	require.Len(t, snapshot.Concentrations, 3)
	assert.Equal(t, "first", snapshot.Concentrations[0].RecordID)
	assert.Equal(t, "second", snapshot.Concentrations[1].RecordID)
	assert.Equal(t, "third", snapshot.Concentrations[2].RecordID)
}

func TestComputeStatistics_StdDevAndTopCategoryShare(t *testing.T) {
	records := []Record{
		{ID: "a", Value: 100, Category: "Commercial"},
		{ID: "b", Value: 300, Category: "Commercial"},
	}

	snapshot := ComputeStatistics(records, "USD")
	assert.InDelta(t, 141.42, snapshot.StdDev, 0.01)
	assert.InDelta(t, 100.0, snapshot.TopCategoryShare, 1e-9)
}

func TestComputeStatistics_SingleRecord(t *testing.T) {
	snapshot := ComputeStatistics([]Record{{ID: "a", Value: 42}}, "EUR")

	assert.Equal(t, 1, snapshot.TotalRecords)
	assert.Equal(t, 42.0, snapshot.MedianValue)
	assert.Equal(t, 42.0, snapshot.MinValue)
	assert.Equal(t, 42.0, snapshot.MaxValue)
	assert.Equal(t, 0.0, snapshot.StdDev)
}
