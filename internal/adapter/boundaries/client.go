// Package boundaries fetches country and US-state boundary polygons as
// GeoJSON from configurable public sources. Geometry stays opaque; only the
// per-feature property bags are read, by the choropleth matcher.
package boundaries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/exposure-analytics-service/internal/domain"
	"github.com/couchcryptid/exposure-analytics-service/internal/observability"
)

// Client implements domain.BoundaryProvider over plain HTTP GeoJSON sources.
type Client struct {
	httpClient *http.Client
	urls       map[domain.BoundarySet]string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a boundary client for the two configured polygon sets.
func NewClient(countriesURL, usStatesURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		urls: map[domain.BoundarySet]string{
			domain.BoundaryCountries: countriesURL,
			domain.BoundaryUSStates:  usStatesURL,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Boundaries fetches and parses the requested polygon set.
func (c *Client) Boundaries(ctx context.Context, set domain.BoundarySet) ([]domain.BoundaryFeature, error) {
	url, ok := c.urls[set]
	if !ok || url == "" {
		return nil, fmt.Errorf("no source configured for boundary set %q", set)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.BoundaryFetches.WithLabelValues(string(set), "error").Inc()
		return nil, fmt.Errorf("fetch boundary set %q: %w", set, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.BoundaryFetches.WithLabelValues(string(set), "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("boundary source error: status %d: %s", resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		c.metrics.BoundaryFetches.WithLabelValues(string(set), "error").Inc()
		return nil, fmt.Errorf("decode boundary set %q: %w", set, err)
	}

	features := make([]domain.BoundaryFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		features = append(features, domain.BoundaryFeature{
			Geometry:   f.Geometry,
			Properties: f.Properties,
		})
	}

	c.metrics.BoundaryFetches.WithLabelValues(string(set), "success").Inc()
	c.logger.Info("boundary set fetched", "set", set, "features", len(features))
	return features, nil
}

// GeoJSON envelope types. Geometry is passed through untouched.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}
