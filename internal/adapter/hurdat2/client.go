// Package hurdat2 fetches and parses the NHC HURDAT2 hurricane database,
// the historical-event catalog behind the "import a past storm as an event
// footprint" workflow.
//
// The format alternates comma-separated header lines and track lines:
//
//	AL092021,              IDA,     40,
//	20210829, 1655, L, HU, 29.1N,  90.2W, 130,  931, ...
//
// Header fields: storm id (basin + number + year), name, track-entry count.
// Track fields: date YYYYMMDD, time HHMM, record id, status, latitude with
// hemisphere suffix, longitude with hemisphere suffix, wind (knots),
// pressure (mb).
package hurdat2

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/exposure-analytics-service/internal/domain"
)

// Basin selects which HURDAT2 database to fetch.
type Basin string

const (
	BasinAtlantic Basin = "atlantic"
	BasinPacific  Basin = "pacific"
)

// headerRe matches a storm header's id field, e.g. "AL092021": basin code,
// storm number, four-digit year. Anchored on both ends so a truncated id
// never reaches the year slice below.
var headerRe = regexp.MustCompile(`^[A-Z]{2}\d{6}$`)

// Storm is one historical hurricane with its full best track.
type Storm struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Year          int          `json:"year"`
	Basin         string       `json:"basin"`
	MaxWindKnots  float64      `json:"max_wind_knots"`
	MaxCategory   int          `json:"max_category"`
	MinPressureMb int          `json:"min_pressure_mb,omitempty"`
	Track         []TrackPoint `json:"track"`
}

// TrackPoint is one best-track entry.
type TrackPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	WindKnots  float64   `json:"wind_knots"`
	PressureMb int       `json:"pressure_mb,omitempty"`
	Category   int       `json:"category"`
	Status     string    `json:"status"`
}

// EventPath converts the storm into a hazard footprint for impact analysis.
// Point intensities carry wind speed; the buffer radius approximates the
// extent of damaging winds.
func (s Storm) EventPath(bufferRadiusKm float64) domain.EventPath {
	points := make([]domain.FootprintPoint, len(s.Track))
	for i, tp := range s.Track {
		points[i] = domain.FootprintPoint{
			Lat:       tp.Lat,
			Lon:       tp.Lon,
			Intensity: tp.WindKnots,
			Category:  tp.Category,
			Timestamp: tp.Timestamp,
		}
	}
	return domain.EventPath{
		ID:             "hurdat2-" + strings.ToLower(s.ID),
		Name:           fmt.Sprintf("%s (%d)", s.Name, s.Year),
		Hazard:         domain.HazardHurricane,
		Points:         points,
		BufferRadiusKm: bufferRadiusKm,
	}
}

// Client fetches HURDAT2 text over HTTP with a per-basin process cache.
// The source files change at most once per season, so cached parses are
// kept for the process lifetime.
type Client struct {
	httpClient *http.Client
	urls       map[Basin]string
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[Basin][]Storm
}

// NewClient creates a HURDAT2 catalog client.
func NewClient(atlanticURL, pacificURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		urls: map[Basin]string{
			BasinAtlantic: atlanticURL,
			BasinPacific:  pacificURL,
		},
		logger: logger,
		cache:  make(map[Basin][]Storm),
	}
}

// Storms returns the storms for one basin filtered to [startYear, endYear].
func (c *Client) Storms(ctx context.Context, basin Basin, startYear, endYear int) ([]Storm, error) {
	all, err := c.basinStorms(ctx, basin)
	if err != nil {
		return nil, err
	}

	out := make([]Storm, 0)
	for _, s := range all {
		if s.Year >= startYear && s.Year <= endYear {
			out = append(out, s)
		}
	}
	return out, nil
}

// Storm returns a single storm by its HURDAT2 id, e.g. "AL092021".
func (c *Client) Storm(ctx context.Context, basin Basin, id string) (Storm, error) {
	all, err := c.basinStorms(ctx, basin)
	if err != nil {
		return Storm{}, err
	}
	for _, s := range all {
		if strings.EqualFold(s.ID, id) {
			return s, nil
		}
	}
	return Storm{}, fmt.Errorf("storm %q not found in %s basin", id, basin)
}

func (c *Client) basinStorms(ctx context.Context, basin Basin) ([]Storm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if storms, ok := c.cache[basin]; ok {
		return storms, nil
	}

	url, ok := c.urls[basin]
	if !ok || url == "" {
		return nil, fmt.Errorf("no source configured for basin %q", basin)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch hurdat2 %s: %w", basin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hurdat2 source error: status %d", resp.StatusCode)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hurdat2 %s: %w", basin, err)
	}

	storms := Parse(string(text))
	c.cache[basin] = storms
	c.logger.Info("hurdat2 catalog loaded", "basin", basin, "storms", len(storms))
	return storms, nil
}

// Parse reads a complete HURDAT2 file. Malformed headers and track lines
// are skipped rather than failing the whole parse; a storm with no valid
// track points is dropped.
func Parse(text string) []Storm {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	storms := make([]Storm, 0)

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		parts := splitTrimmed(line)
		if len(parts) < 3 || !headerRe.MatchString(parts[0]) {
			continue
		}

		stormID := parts[0]
		name := parts[1]
		if name == "" {
			name = "UNNAMED"
		}
		numEntries, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		year, err := strconv.Atoi(stormID[len(stormID)-4:])
		if err != nil {
			i += numEntries
			continue
		}

		storm := Storm{
			ID:    stormID,
			Name:  name,
			Year:  year,
			Basin: stormID[:2],
		}
		for j := 1; j <= numEntries && i+j < len(lines); j++ {
			point, ok := parseTrackLine(lines[i+j])
			if !ok {
				continue
			}
			storm.Track = append(storm.Track, point)
			if point.WindKnots > storm.MaxWindKnots {
				storm.MaxWindKnots = point.WindKnots
			}
			if point.Category > storm.MaxCategory {
				storm.MaxCategory = point.Category
			}
			if point.PressureMb > 0 && (storm.MinPressureMb == 0 || point.PressureMb < storm.MinPressureMb) {
				storm.MinPressureMb = point.PressureMb
			}
		}
		if len(storm.Track) > 0 {
			storms = append(storms, storm)
		}
		i += numEntries
	}
	return storms
}

func parseTrackLine(line string) (TrackPoint, bool) {
	parts := splitTrimmed(line)
	if len(parts) < 8 {
		return TrackPoint{}, false
	}

	timestamp, err := time.Parse("200601021504", parts[0]+parts[1])
	if err != nil {
		return TrackPoint{}, false
	}

	lat, ok := parseHemisphere(parts[4], "S")
	if !ok {
		return TrackPoint{}, false
	}
	lon, ok := parseHemisphere(parts[5], "W")
	if !ok {
		return TrackPoint{}, false
	}

	wind, err := strconv.ParseFloat(parts[6], 64)
	if err != nil {
		wind = 0
	}
	pressure, err := strconv.Atoi(parts[7])
	if err != nil || pressure <= 0 {
		pressure = 0
	}

	status := parts[3]
	if status == "" {
		status = "TS"
	}

	return TrackPoint{
		Timestamp:  timestamp.UTC(),
		Lat:        lat,
		Lon:        lon,
		WindKnots:  wind,
		PressureMb: pressure,
		Category:   domain.WindToCategory(wind),
		Status:     status,
	}, true
}

// parseHemisphere parses "29.1N" / "90.2W" style coordinates, negating when
// the suffix matches the negative hemisphere.
func parseHemisphere(s, negative string) (float64, bool) {
	if len(s) < 2 {
		return 0, false
	}
	suffix := s[len(s)-1:]
	v, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, false
	}
	if suffix == negative {
		v = -v
	}
	return v, true
}

func splitTrimmed(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
