// Package feed consumes live hazard events from the event-feed Kafka topic
// and registers them in the session as event footprints. The feed service
// owns the wire format; this adapter only maps it onto domain.EventPath.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/exposure-analytics-service/internal/config"
	"github.com/couchcryptid/exposure-analytics-service/internal/domain"
	"github.com/couchcryptid/exposure-analytics-service/internal/observability"
)

// Default buffer radii per hazard kind, in kilometres, applied when the
// feed message does not carry its own radius. Values mirror the alerting
// thresholds the upstream feed uses.
const (
	defaultHurricaneRadiusKm = 100
	defaultTornadoRadiusKm   = 25
	defaultWildfireRadiusKm  = 30
)

// PathSink receives event paths decoded from the feed. The session store
// satisfies this interface.
type PathSink interface {
	AddEventPath(path domain.EventPath) domain.EventPath
}

// feedEvent is the wire format published by the hazard feed service.
type feedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Hazard    string    `json:"hazard"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Magnitude float64   `json:"magnitude,omitempty"`
	WindKnots float64   `json:"wind_knots,omitempty"`
	RadiusKm  float64   `json:"radius_km,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Multi-point footprints (storm tracks) carry an explicit point list;
	// single-point hazards leave it empty and use lat/lon.
	Points []feedPoint `json:"points,omitempty"`
}

type feedPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Intensity float64   `json:"intensity,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Consumer reads hazard events from Kafka and pushes them into the sink.
type Consumer struct {
	reader  *kafkago.Reader
	sink    PathSink
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewConsumer creates a feed consumer for the configured topic.
func NewConsumer(cfg *config.Config, sink PathSink, metrics *observability.Metrics, logger *slog.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.FeedBrokers,
		Topic:   cfg.FeedTopic,
		GroupID: cfg.FeedGroupID,
	})
	return &Consumer{reader: reader, sink: sink, metrics: metrics, logger: logger}
}

// Run consumes until the context is cancelled. Decode failures are logged
// and skipped; the feed must never take the analysis API down.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("hazard feed consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				c.logger.Info("hazard feed consumer stopping")
				return nil
			}
			return fmt.Errorf("read feed message: %w", err)
		}

		c.metrics.FeedEventsConsumed.Inc()
		path, err := mapMessage(msg)
		if err != nil {
			c.metrics.FeedDecodeErrors.Inc()
			c.logger.Warn("skipping undecodable feed message",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			continue
		}

		registered := c.sink.AddEventPath(path)
		c.logger.Info("event path registered from feed",
			"event_path_id", registered.ID,
			"hazard", registered.Hazard,
			"points", len(registered.Points),
			"buffer_radius_km", registered.BufferRadiusKm,
		)
	}
}

// Close shuts down the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// mapMessage decodes one feed message into an event path.
func mapMessage(msg kafkago.Message) (domain.EventPath, error) {
	var evt feedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return domain.EventPath{}, fmt.Errorf("decode feed event: %w", err)
	}
	if evt.ID == "" {
		return domain.EventPath{}, errors.New("feed event missing id")
	}

	hazard, err := parseHazard(evt.Hazard)
	if err != nil {
		return domain.EventPath{}, err
	}

	points := make([]domain.FootprintPoint, 0, len(evt.Points))
	for _, p := range evt.Points {
		points = append(points, domain.FootprintPoint{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Intensity: p.Intensity,
			Timestamp: p.Timestamp,
		})
	}
	if len(points) == 0 {
		points = append(points, domain.FootprintPoint{
			Lat:       evt.Lat,
			Lon:       evt.Lon,
			Intensity: pointIntensity(hazard, evt),
			Timestamp: evt.Timestamp,
		})
	}

	name := evt.Name
	if name == "" {
		name = evt.ID
	}

	return domain.EventPath{
		ID:             evt.ID,
		Name:           name,
		Hazard:         hazard,
		Points:         points,
		BufferRadiusKm: bufferRadius(hazard, evt),
	}, nil
}

func parseHazard(s string) (domain.HazardKind, error) {
	switch domain.HazardKind(s) {
	case domain.HazardHurricane, domain.HazardEarthquake, domain.HazardWildfire, domain.HazardTornado:
		return domain.HazardKind(s), nil
	default:
		return "", fmt.Errorf("unknown hazard kind %q", s)
	}
}

func pointIntensity(hazard domain.HazardKind, evt feedEvent) float64 {
	if hazard == domain.HazardEarthquake {
		return evt.Magnitude
	}
	return evt.WindKnots
}

// bufferRadius picks the footprint radius: the feed's own radius when given,
// otherwise a hazard-specific default. Earthquake radii scale with magnitude
// since felt area grows rapidly with energy release.
func bufferRadius(hazard domain.HazardKind, evt feedEvent) float64 {
	if evt.RadiusKm > 0 {
		return evt.RadiusKm
	}
	switch hazard {
	case domain.HazardEarthquake:
		if evt.Magnitude <= 0 {
			return 50
		}
		return evt.Magnitude * 20
	case domain.HazardTornado:
		return defaultTornadoRadiusKm
	case domain.HazardWildfire:
		return defaultWildfireRadiusKm
	default:
		return defaultHurricaneRadiusKm
	}
}
