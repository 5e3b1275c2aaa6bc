// Package domain models insured-exposure portfolios and the analysis
// engine that runs over them.
//
// # Data Model
//
// A portfolio is a set of geolocated records, each carrying a Total Insured
// Value (TIV), the monetary exposure at one location. Records arrive from
// the upload layer already parsed; this package never reads files. A Dataset
// is immutable after import: every derived structure (regions, statistics,
// impact analyses, choropleth features) is recomputed from scratch on demand
// and holds no independent lifecycle.
//
// # Geography Conventions
//
// Coordinates are WGS-84 degrees treated as a flat plane. All distance math
// in this package is deliberately approximate:
//
//	1 degree ≈ 111 km (equatorial approximation, no spherical correction)
//
// Impact footprints are unions of circles around discrete track points, not
// buffered polylines. Records near the segment between two track points but
// far from both endpoints are under-counted. Downstream consumers compare
// results across runs, so this geometry must stay bit-stable; do not swap in
// haversine or point-to-segment math without versioning the change.
//
// # Aggregation Keys
//
// Grouping keys depend on the chosen granularity. Records missing the
// geography field for an area granularity are keyed by a synthetic
// "loc_<id>" fallback so they are never dropped or merged. Grid granularity
// floors each coordinate to a 0.5° cell, which buckets nearby points
// without requiring a spatial index.
//
// # Determinism
//
// Sorts that feed user-visible rankings are stable; ties keep input order.
// The median of an even-sized value list is the lower-middle element with
// no interpolation, preserved for reproducibility with prior results.
package domain
