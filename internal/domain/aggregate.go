package domain

import (
	"fmt"
	"math"
	"strings"
)

// gridCellDegrees is the side length of a grid-granularity cell.
const gridCellDegrees = 0.5

// ApplyFilter returns the records surviving every set predicate. Each
// predicate is an independent pass; an unset predicate passes all records.
func ApplyFilter(records []Record, filter Filter) []Record {
	if filter.IsZero() {
		return records
	}

	out := records
	if filter.MinValue != nil {
		out = keepIf(out, func(r Record) bool { return r.Value >= *filter.MinValue })
	}
	if filter.MaxValue != nil {
		out = keepIf(out, func(r Record) bool { return r.Value <= *filter.MaxValue })
	}
	if len(filter.Categories) > 0 {
		allowed := lowerSet(filter.Categories)
		out = keepIf(out, func(r Record) bool { return allowed[strings.ToLower(r.Category)] })
	}
	if len(filter.States) > 0 {
		allowed := lowerSet(filter.States)
		out = keepIf(out, func(r Record) bool { return allowed[strings.ToLower(r.State)] })
	}
	if len(filter.Countries) > 0 {
		allowed := lowerSet(filter.Countries)
		out = keepIf(out, func(r Record) bool { return allowed[strings.ToLower(r.Country)] })
	}
	return out
}

func keepIf(records []Record, pred func(Record) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

// Aggregate groups the filtered records into regions at the requested
// granularity. Output order is unspecified (map iteration order); callers
// must not depend on it. The result is a fresh slice on every call; there
// is no incremental update path.
func Aggregate(records []Record, granularity Granularity, filter Filter) []Region {
	filtered := ApplyFilter(records, filter)

	groups := make(map[string][]Record)
	names := make(map[string]string)
	for _, r := range filtered {
		key, name := groupKey(r, granularity)
		groups[key] = append(groups[key], r)
		names[key] = name
	}

	regions := make([]Region, 0, len(groups))
	for key, members := range groups {
		regions = append(regions, buildRegion(key, names[key], members))
	}
	return regions
}

// groupKey computes the grouping key and display name for one record.
// Area granularities with a missing geography field fall back to a synthetic
// per-record key so the record is never silently dropped or merged.
func groupKey(r Record, granularity Granularity) (key, name string) {
	switch granularity {
	case GranularityPostal:
		return fieldOrFallback(r, r.PostalCode)
	case GranularityCity:
		return fieldOrFallback(r, r.City)
	case GranularityCounty:
		return fieldOrFallback(r, r.County)
	case GranularityState:
		return fieldOrFallback(r, r.State)
	case GranularityCountry:
		return fieldOrFallback(r, r.Country)
	case GranularityGrid:
		cell := fmt.Sprintf("grid_%g_%g", floorToCell(r.Lat), floorToCell(r.Lon))
		return cell, cell
	default: // location
		return r.ID, DisplayName(r)
	}
}

func fieldOrFallback(r Record, field string) (key, name string) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "loc_" + r.ID, DisplayName(r)
	}
	return strings.ToLower(field), field
}

func floorToCell(deg float64) float64 {
	return math.Floor(deg/gridCellDegrees) * gridCellDegrees
}

// buildRegion sums member values and averages member coordinates. The
// centroid is the plain arithmetic mean, not value-weighted. A bounding box
// is emitted only for regions with more than one member.
func buildRegion(key, name string, members []Record) Region {
	region := Region{Key: key, Name: name, Count: len(members)}

	var sumLat, sumLon float64
	bounds := Bounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for _, m := range members {
		region.TotalValue += m.Value
		sumLat += m.Lat
		sumLon += m.Lon
		bounds.MinLat = math.Min(bounds.MinLat, m.Lat)
		bounds.MaxLat = math.Max(bounds.MaxLat, m.Lat)
		bounds.MinLon = math.Min(bounds.MinLon, m.Lon)
		bounds.MaxLon = math.Max(bounds.MaxLon, m.Lon)
	}

	n := float64(len(members))
	region.CentroidLat = sumLat / n
	region.CentroidLon = sumLon / n
	if len(members) > 1 {
		region.Bounds = &bounds
	}
	return region
}

// DisplayName picks a human-readable label for a record: address, else city,
// else a coordinate string.
func DisplayName(r Record) string {
	if r.Address != "" {
		return r.Address
	}
	if r.City != "" {
		return r.City
	}
	return fmt.Sprintf("%.4f, %.4f", r.Lat, r.Lon)
}
