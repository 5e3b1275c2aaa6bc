package domain

import (
	"math"
	"sort"
	"time"
)

// kmPerDegree is the equatorial approximation used for all buffer math.
// No spherical correction is applied; see the package doc.
const kmPerDegree = 111.0

// HazardKind classifies an event footprint.
type HazardKind string

const (
	HazardHurricane  HazardKind = "hurricane"
	HazardEarthquake HazardKind = "earthquake"
	HazardWildfire   HazardKind = "wildfire"
	HazardTornado    HazardKind = "tornado"
)

// FootprintPoint is one vertex of an event footprint: a coordinate with an
// optional intensity (wind knots, magnitude) and timestamp.
type FootprintPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Intensity float64   `json:"intensity,omitempty"`
	Category  int       `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// EventPath is a hazard footprint: an ordered point list plus a buffer
// radius in kilometres. Session-scoped; added and removed explicitly.
type EventPath struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Hazard         HazardKind       `json:"hazard"`
	Points         []FootprintPoint `json:"points"`
	BufferRadiusKm float64          `json:"buffer_radius_km"`
}

// AnalysisStatus brackets an impact computation so the consuming UI can show
// a busy state. The computation itself is synchronous.
type AnalysisStatus string

const (
	AnalysisRunning  AnalysisStatus = "running"
	AnalysisComplete AnalysisStatus = "complete"
)

// ImpactAnalysis pairs one event path with the active dataset: the affected
// records, their summed value, and a per-category breakdown.
type ImpactAnalysis struct {
	EventPathID     string         `json:"event_path_id"`
	EventPathName   string         `json:"event_path_name"`
	Hazard          HazardKind     `json:"hazard"`
	Status          AnalysisStatus `json:"status"`
	AffectedCount   int            `json:"affected_count"`
	AffectedValue   float64        `json:"affected_value"`
	PercentOfTotal  float64        `json:"percent_of_total"`
	Categories      []Breakdown    `json:"categories"`
	AffectedRecords []Record       `json:"affected_records"`
	AnalyzedAt      time.Time      `json:"analyzed_at"`
}

// AnalyzeImpact tests every dataset record against every event path and
// summarizes the affected value per path. A nil dataset or an empty path set
// yields an empty result, never an error. Runs independently of aggregation.
func AnalyzeImpact(dataset *Dataset, paths []EventPath) []ImpactAnalysis {
	if dataset == nil || len(paths) == 0 {
		return []ImpactAnalysis{}
	}

	analyses := make([]ImpactAnalysis, 0, len(paths))
	for _, path := range paths {
		analyses = append(analyses, analyzePath(dataset, path))
	}
	return analyses
}

func analyzePath(dataset *Dataset, path EventPath) ImpactAnalysis {
	analysis := ImpactAnalysis{
		EventPathID:     path.ID,
		EventPathName:   path.Name,
		Hazard:          path.Hazard,
		Status:          AnalysisRunning,
		Categories:      []Breakdown{},
		AffectedRecords: []Record{},
	}

	threshold := path.BufferRadiusKm / kmPerDegree
	for _, r := range dataset.Records {
		if recordAffected(r, path.Points, threshold) {
			analysis.AffectedRecords = append(analysis.AffectedRecords, r)
			analysis.AffectedValue += r.Value
		}
	}
	analysis.AffectedCount = len(analysis.AffectedRecords)
	if dataset.TotalValue > 0 {
		analysis.PercentOfTotal = analysis.AffectedValue / dataset.TotalValue * 100
	}
	analysis.Categories = affectedCategories(analysis.AffectedRecords, analysis.AffectedValue)
	analysis.AnalyzedAt = clock.Now()
	analysis.Status = AnalysisComplete
	return analysis
}

// recordAffected reports whether the record lies within the buffer of any
// footprint point. Planar Euclidean distance in degrees; the buffer is a
// union of circles around discrete points, not a buffered polyline.
func recordAffected(r Record, points []FootprintPoint, thresholdDeg float64) bool {
	for _, p := range points {
		if math.Hypot(r.Lat-p.Lat, r.Lon-p.Lon) <= thresholdDeg {
			return true
		}
	}
	return false
}

// affectedCategories breaks affected value down per category. Percentages
// are relative to the affected value, not the dataset total.
func affectedCategories(records []Record, affectedValue float64) []Breakdown {
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

	out := make([]Breakdown, 0, len(buckets))
	for _, name := range order {
		b := *buckets[name]
		if affectedValue > 0 {
			b.Percentage = b.Value / affectedValue * 100
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// WindToCategory converts maximum sustained wind in knots to the
// Saffir-Simpson category, 0 meaning tropical storm or depression.
func WindToCategory(windKnots float64) int {
	switch {
	case windKnots >= 137:
		return 5
	case windKnots >= 113:
		return 4
	case windKnots >= 96:
		return 3
	case windKnots >= 83:
		return 2
	case windKnots >= 64:
		return 1
	default:
		return 0
	}
}
