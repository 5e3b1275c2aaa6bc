// Package store owns uploaded datasets and the analysis session state:
// the active-dataset selection, the transient filter, the chosen
// granularity, and the registered event paths. Every mutation recomputes
// the derived regions and statistics before the mutating call returns, so
// readers never observe stale derived state.
package store

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/exposure-analytics-service/internal/domain"
	"github.com/couchcryptid/exposure-analytics-service/internal/observability"
)

// ErrDatasetNotFound is returned when activating or reading an unknown dataset.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrNoRecords is returned when an import carries no records.
var ErrNoRecords = errors.New("dataset has no records")

// DatasetSummary is the listing view of an imported dataset.
type DatasetSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Currency    string  `json:"currency"`
	RecordCount int     `json:"record_count"`
	TotalValue  float64 `json:"total_value"`
	CreatedAt   string  `json:"created_at"`
	Active      bool    `json:"active"`
}

// FilterPatch carries partial filter updates; nil fields are left unchanged.
type FilterPatch struct {
	MinValue   *float64  `json:"min_value"`
	MaxValue   *float64  `json:"max_value"`
	Categories *[]string `json:"categories"`
	States     *[]string `json:"states"`
	Countries  *[]string `json:"countries"`
}

// Store holds the session state behind a mutex. The core computations are
// single-threaded per call; the mutex only serializes concurrent API
// handlers, it does not make recomputation incremental.
type Store struct {
	mu sync.Mutex

	datasets     map[string]*domain.Dataset
	datasetOrder []string
	activeID     string

	filter      domain.Filter
	granularity domain.Granularity
	eventPaths  []domain.EventPath

	// Derived state, rebuilt on every mutation.
	regions    []domain.Region
	statistics domain.StatisticsSnapshot
	impacts    []domain.ImpactAnalysis

	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an empty session store.
func New(logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		datasets:    make(map[string]*domain.Dataset),
		granularity: domain.GranularityLocation,
		regions:     []domain.Region{},
		impacts:     []domain.ImpactAnalysis{},
		logger:      logger,
		metrics:     metrics,
	}
}

// ImportDataset registers a new dataset, computes its total value, makes it
// the active dataset, and recomputes derived state.
func (s *Store) ImportDataset(records []domain.Record, name, currency string) (*domain.Dataset, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	ds := &domain.Dataset{
		ID:        uuid.NewString(),
		Name:      name,
		Currency:  currency,
		Records:   records,
		CreatedAt: domain.Now(),
	}
	for _, r := range records {
		ds.TotalValue += r.Value
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[ds.ID] = ds
	s.datasetOrder = append(s.datasetOrder, ds.ID)
	s.activeID = ds.ID
	s.impacts = []domain.ImpactAnalysis{}
	s.recomputeLocked()

	s.metrics.DatasetsImported.Inc()
	s.metrics.RecordsImported.Add(float64(len(records)))
	s.logger.Info("dataset imported",
		"dataset_id", ds.ID,
		"name", name,
		"records", len(records),
		"total_value", ds.TotalValue,
		"currency", currency,
	)
	return ds, nil
}

// Activate switches the active dataset and recomputes derived state.
// Existing impact analyses refer to the previous dataset and are dropped.
func (s *Store) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return ErrDatasetNotFound
	}
	s.activeID = id
	s.impacts = []domain.ImpactAnalysis{}
	s.recomputeLocked()
	return nil
}

// MergeFilter applies a partial filter update and recomputes derived state.
func (s *Store) MergeFilter(patch FilterPatch) domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.MinValue != nil {
		s.filter.MinValue = patch.MinValue
	}
	if patch.MaxValue != nil {
		s.filter.MaxValue = patch.MaxValue
	}
	if patch.Categories != nil {
		s.filter.Categories = *patch.Categories
	}
	if patch.States != nil {
		s.filter.States = *patch.States
	}
	if patch.Countries != nil {
		s.filter.Countries = *patch.Countries
	}
	s.recomputeLocked()
	return s.filter
}

// ClearFilter removes every predicate and recomputes derived state.
func (s *Store) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = domain.Filter{}
	s.recomputeLocked()
}

// SetGranularity changes the aggregation resolution and recomputes derived
// state. Unrecognized values fall back to location granularity.
func (s *Store) SetGranularity(raw string) domain.Granularity {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.granularity = domain.ParseGranularity(raw)
	s.recomputeLocked()
	return s.granularity
}

// AddEventPath registers an event path, assigning an ID when absent.
func (s *Store) AddEventPath(path domain.EventPath) domain.EventPath {
	if path.ID == "" {
		path.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventPaths = append(s.eventPaths, path)
	s.metrics.EventPathsActive.Set(float64(len(s.eventPaths)))
	return path
}

// RemoveEventPath deletes the path with the given ID, reporting whether it
// existed. A matching stale analysis is dropped as well.
func (s *Store) RemoveEventPath(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.eventPaths {
		if p.ID == id {
			s.eventPaths = append(s.eventPaths[:i], s.eventPaths[i+1:]...)
			s.dropImpactLocked(id)
			s.metrics.EventPathsActive.Set(float64(len(s.eventPaths)))
			return true
		}
	}
	return false
}

// ClearEventPaths removes every registered path and all analyses.
func (s *Store) ClearEventPaths() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventPaths = nil
	s.impacts = []domain.ImpactAnalysis{}
	s.metrics.EventPathsActive.Set(0)
}

// Analyze runs the impact analysis for every registered event path against
// the active dataset. Zero paths or no active dataset yields an empty
// result. A later call simply overwrites the previous result set.
func (s *Store) Analyze() []domain.ImpactAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := prometheus.NewTimer(s.metrics.ImpactDuration)
	s.impacts = domain.AnalyzeImpact(s.activeLocked(), s.eventPaths)
	timer.ObserveDuration()

	s.metrics.ImpactAnalyses.Add(float64(len(s.impacts)))
	return cloneImpacts(s.impacts)
}

// Regions returns the current aggregation output.
func (s *Store) Regions() []domain.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Statistics returns the current statistics snapshot.
func (s *Store) Statistics() domain.StatisticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statistics
}

// Impacts returns the most recent impact analyses.
func (s *Store) Impacts() []domain.ImpactAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneImpacts(s.impacts)
}

// EventPaths returns the registered event paths.
func (s *Store) EventPaths() []domain.EventPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventPath, len(s.eventPaths))
	copy(out, s.eventPaths)
	return out
}

// Granularity returns the current aggregation resolution.
func (s *Store) Granularity() domain.Granularity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granularity
}

// Filter returns the current filter.
func (s *Store) Filter() domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// ActiveDataset returns the active dataset, or nil when none is imported.
func (s *Store) ActiveDataset() *domain.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// Datasets lists every imported dataset in import order.
func (s *Store) Datasets() []DatasetSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]DatasetSummary, 0, len(s.datasetOrder))
	for _, id := range s.datasetOrder {
		ds := s.datasets[id]
		out = append(out, DatasetSummary{
			ID:          ds.ID,
			Name:        ds.Name,
			Currency:    ds.Currency,
			RecordCount: len(ds.Records),
			TotalValue:  ds.TotalValue,
			CreatedAt:   ds.CreatedAt.Format(time.RFC3339),
			Active:      id == s.activeID,
		})
	}
	return out
}

func (s *Store) activeLocked() *domain.Dataset {
	if s.activeID == "" {
		return nil
	}
	return s.datasets[s.activeID]
}

// recomputeLocked rebuilds regions and statistics from the active dataset.
// Called under the mutex after every mutation, so derived state is fully
// recomputed before the mutating call returns.
func (s *Store) recomputeLocked() {
	ds := s.activeLocked()
	if ds == nil {
		s.regions = []domain.Region{}
		s.statistics = domain.ComputeStatistics(nil, "")
		return
	}

	timer := prometheus.NewTimer(s.metrics.AggregationDuration)
	s.regions = domain.Aggregate(ds.Records, s.granularity, s.filter)
	filtered := domain.ApplyFilter(ds.Records, s.filter)
	s.statistics = domain.ComputeStatistics(filtered, ds.Currency)
	timer.ObserveDuration()

	s.metrics.RegionsCurrent.Set(float64(len(s.regions)))
}

func (s *Store) dropImpactLocked(pathID string) {
	for i, a := range s.impacts {
		if a.EventPathID == pathID {
			s.impacts = append(s.impacts[:i], s.impacts[i+1:]...)
			return
		}
	}
}

func cloneImpacts(impacts []domain.ImpactAnalysis) []domain.ImpactAnalysis {
	out := make([]domain.ImpactAnalysis, len(impacts))
	copy(out, impacts)
	return out
}
