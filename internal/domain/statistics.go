package domain

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// concentrationLimit caps the concentration ranking length.
const concentrationLimit = 10

// unknownCategory buckets records that carry no category label.
const unknownCategory = "Unknown"

// Breakdown tallies count and value for one distinct field value. Percentage
// is relative to the breakdown's own denominator (the filtered total).
type Breakdown struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// ConcentrationEntry is one row of the top-value ranking.
type ConcentrationEntry struct {
	RecordID   string  `json:"record_id"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// StatisticsSnapshot is a read-only summary over a (possibly filtered)
// record set. Rebuilt whenever the dataset, active selection, or filter
// changes; never mutated in place.
type StatisticsSnapshot struct {
	TotalRecords int     `json:"total_records"`
	TotalValue   float64 `json:"total_value"`
	AverageValue float64 `json:"average_value"`
	MedianValue  float64 `json:"median_value"`
	MinValue     float64 `json:"min_value"`
	MaxValue     float64 `json:"max_value"`
	StdDev       float64 `json:"std_dev"`
	Currency     string  `json:"currency"`

	Categories     []Breakdown          `json:"categories"`
	States         []Breakdown          `json:"states,omitempty"`
	Concentrations []ConcentrationEntry `json:"concentrations"`

	// TopCategoryShare is the percentage of total value held by the largest
	// category bucket.
	TopCategoryShare float64 `json:"top_category_share"`
}

// ComputeStatistics summarizes records already filtered by the caller.
// Empty input yields a zeroed snapshot with empty breakdowns, never an error.
func ComputeStatistics(records []Record, currency string) StatisticsSnapshot {
	snapshot := StatisticsSnapshot{
		Currency:       currency,
		Categories:     []Breakdown{},
		Concentrations: []ConcentrationEntry{},
	}
	if len(records) == 0 {
		return snapshot
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Value
	}
	sort.Float64s(values)

	snapshot.TotalRecords = len(records)
	snapshot.TotalValue = floats.Sum(values)
	snapshot.AverageValue = stat.Mean(values, nil)
	// Lower-middle element for even counts; no interpolation.
	snapshot.MedianValue = values[(len(values)-1)/2]
	snapshot.MinValue = values[0]
	snapshot.MaxValue = values[len(values)-1]
	if len(values) > 1 {
		snapshot.StdDev = stat.StdDev(values, nil)
	}

	snapshot.Categories = categoryBreakdown(records, snapshot.TotalValue)
	snapshot.States = stateBreakdown(records, snapshot.TotalValue)
	snapshot.Concentrations = concentrationRanking(records, snapshot.TotalValue)

	for _, b := range snapshot.Categories {
		if b.Percentage > snapshot.TopCategoryShare {
			snapshot.TopCategoryShare = b.Percentage
		}
	}
	return snapshot
}

// categoryBreakdown buckets every record; missing categories land in an
// explicit "Unknown" bucket so the bucket values always sum to the total.
func categoryBreakdown(records []Record, total float64) []Breakdown {
	buckets := make(map[string]*Breakdown)
	order := make([]string, 0)
	for _, r := range records {
		name := r.Category
		if name == "" {
			name = unknownCategory
		}
		b, ok := buckets[name]
		if !ok {
			b = &Breakdown{Name: name}
			buckets[name] = b
			order = append(order, name)
		}
		b.Count++
		b.Value += r.Value
	}
	return finishBreakdowns(buckets, order, total)
}

// stateBreakdown buckets only records that carry a state; stateless records
// are excluded entirely rather than bucketed under a placeholder. Bucket
// keys are case-insensitive, matching the filter and aggregation key
// treatment of the state field; first-seen casing is the display name.
func stateBreakdown(records []Record, total float64) []Breakdown {
	buckets := make(map[string]*Breakdown)
	order := make([]string, 0)
	for _, r := range records {
		if r.State == "" {
			continue
		}
		key := strings.ToLower(r.State)
		b, ok := buckets[key]
		if !ok {
			b = &Breakdown{Name: r.State}
			buckets[key] = b
			order = append(order, key)
		}
		b.Count++
		b.Value += r.Value
	}
	if len(buckets) == 0 {
		return nil
	}
	return finishBreakdowns(buckets, order, total)
}

// finishBreakdowns fills percentages and orders buckets by value descending,
// first-seen order on ties.
func finishBreakdowns(buckets map[string]*Breakdown, order []string, total float64) []Breakdown {
	out := make([]Breakdown, 0, len(buckets))
	for _, name := range order {
		b := *buckets[name]
		if total > 0 {
			b.Percentage = b.Value / total * 100
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// concentrationRanking returns the top records by value, descending, ties
// broken by original input order.
func concentrationRanking(records []Record, total float64) []ConcentrationEntry {
	ranked := make([]Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value > ranked[j].Value })

	if len(ranked) > concentrationLimit {
		ranked = ranked[:concentrationLimit]
	}

	out := make([]ConcentrationEntry, len(ranked))
	for i, r := range ranked {
		entry := ConcentrationEntry{
			RecordID: r.ID,
			Name:     DisplayName(r),
			Value:    r.Value,
		}
		if total > 0 {
			entry.Percentage = r.Value / total * 100
		}
		out[i] = entry
	}
	return out
}
