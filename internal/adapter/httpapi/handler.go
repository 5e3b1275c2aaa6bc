package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/exposure-analytics-service/internal/adapter/hurdat2"
	"github.com/couchcryptid/exposure-analytics-service/internal/domain"
	"github.com/couchcryptid/exposure-analytics-service/internal/store"
)

// Handler wires the session store and the external adapters into routes.
type Handler struct {
	store      *store.Store
	boundaries domain.BoundaryProvider
	catalog    *hurdat2.Client
	logger     *slog.Logger
}

// NewHandler creates the API handler. boundaries and catalog may be nil in
// tests; the corresponding endpoints then degrade to empty results.
func NewHandler(s *store.Store, boundaries domain.BoundaryProvider, catalog *hurdat2.Client, logger *slog.Logger) *Handler {
	return &Handler{store: s, boundaries: boundaries, catalog: catalog, logger: logger}
}

// RegisterRoutes attaches the API routes to the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/datasets", h.importDataset)
	api.GET("/datasets", h.listDatasets)
	api.PUT("/datasets/:id/activate", h.activateDataset)

	api.PUT("/session/filter", h.mergeFilter)
	api.DELETE("/session/filter", h.clearFilter)
	api.PUT("/session/granularity", h.setGranularity)

	api.GET("/regions", h.getRegions)
	api.GET("/statistics", h.getStatistics)

	api.POST("/events", h.addEventPath)
	api.GET("/events", h.listEventPaths)
	api.DELETE("/events/:id", h.removeEventPath)
	api.DELETE("/events", h.clearEventPaths)

	api.POST("/impact/analyze", h.analyzeImpact)
	api.GET("/impact", h.getImpacts)

	api.GET("/choropleth", h.getChoropleth)

	api.GET("/catalog/hurricanes", h.listHistoricalStorms)
	api.POST("/catalog/hurricanes/:id/event", h.importHistoricalStorm)
}

// --- datasets ---

type recordPayload struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat" binding:"required"`
	Lon         float64 `json:"lon" binding:"required"`
	Value       float64 `json:"value"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	County      string  `json:"county"`
	State       string  `json:"state"`
	Country     string  `json:"country"`
	PostalCode  string  `json:"postal_code"`
}

type importDatasetRequest struct {
	Name     string          `json:"name" binding:"required"`
	Currency string          `json:"currency"`
	Records  []recordPayload `json:"records" binding:"required"`
}

func (h *Handler) importDataset(c *gin.Context) {
	var req importDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import payload: " + err.Error()})
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	records := make([]domain.Record, len(req.Records))
	for i, p := range req.Records {
		if p.Value < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("record %d has negative value", i),
			})
			return
		}
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("rec_%d", i)
		}
		records[i] = domain.Record{
			ID:          id,
			Lat:         p.Lat,
			Lon:         p.Lon,
			Value:       p.Value,
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Address:     p.Address,
			City:        p.City,
			County:      p.County,
			State:       p.State,
			Country:     p.Country,
			PostalCode:  p.PostalCode,
		}
	}

	ds, err := h.store.ImportDataset(records, req.Name, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           ds.ID,
		"name":         ds.Name,
		"currency":     ds.Currency,
		"record_count": len(ds.Records),
		"total_value":  ds.TotalValue,
	})
}

func (h *Handler) listDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": h.store.Datasets()})
}

func (h *Handler) activateDataset(c *gin.Context) {
	if err := h.store.Activate(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to activate dataset"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": c.Param("id")})
}

// --- session ---

func (h *Handler) mergeFilter(c *gin.Context) {
	var patch store.FilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter payload: " + err.Error()})
		return
	}
	merged := h.store.MergeFilter(patch)
	c.JSON(http.StatusOK, gin.H{"filter": merged})
}

func (h *Handler) clearFilter(c *gin.Context) {
	h.store.ClearFilter()
	c.JSON(http.StatusOK, gin.H{"filter": domain.Filter{}})
}

type granularityRequest struct {
	Granularity string `json:"granularity" binding:"required"`
}

func (h *Handler) setGranularity(c *gin.Context) {
	var req granularityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid granularity payload: " + err.Error()})
		return
	}
	applied := h.store.SetGranularity(req.Granularity)
	c.JSON(http.StatusOK, gin.H{"granularity": applied})
}

// --- derived state ---

// regionView carries the visual encoding alongside the aggregate so marker
// and choropleth renderers color identically.
type regionView struct {
	domain.Region
	FillColor    string  `json:"fill_color"`
	MarkerRadius float64 `json:"marker_radius"`
}

func (h *Handler) getRegions(c *gin.Context) {
	regions := h.store.Regions()

	maxValue := 0.0
	for _, r := range regions {
		if r.TotalValue > maxValue {
			maxValue = r.TotalValue
		}
	}

	views := make([]regionView, len(regions))
	for i, r := range regions {
		views[i] = regionView{
			Region:       r,
			FillColor:    domain.ColorForValue(r.TotalValue, maxValue),
			MarkerRadius: domain.MarkerSizeForValue(r.TotalValue, maxValue),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"granularity": h.store.Granularity(),
		"regions":     views,
	})
}

func (h *Handler) getStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Statistics())
}

// --- event paths ---

type eventPathRequest struct {
	Name           string                  `json:"name" binding:"required"`
	Hazard         string                  `json:"hazard" binding:"required"`
	BufferRadiusKm float64                 `json:"buffer_radius_km" binding:"required"`
	Points         []domain.FootprintPoint `json:"points" binding:"required"`
}

func (h *Handler) addEventPath(c *gin.Context) {
	var req eventPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload: " + err.Error()})
		return
	}

	hazard := domain.HazardKind(req.Hazard)
	switch hazard {
	case domain.HazardHurricane, domain.HazardEarthquake, domain.HazardWildfire, domain.HazardTornado:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown hazard kind"})
		return
	}

	path := h.store.AddEventPath(domain.EventPath{
		Name:           req.Name,
		Hazard:         hazard,
		Points:         req.Points,
		BufferRadiusKm: req.BufferRadiusKm,
	})
	c.JSON(http.StatusCreated, path)
}

func (h *Handler) listEventPaths(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.store.EventPaths()})
}

func (h *Handler) removeEventPath(c *gin.Context) {
	if !h.store.RemoveEventPath(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event path not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": c.Param("id")})
}

func (h *Handler) clearEventPaths(c *gin.Context) {
	h.store.ClearEventPaths()
	c.JSON(http.StatusOK, gin.H{"events": []domain.EventPath{}})
}

// --- impact ---

func (h *Handler) analyzeImpact(c *gin.Context) {
	analyses := h.store.Analyze()
	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}

func (h *Handler) getImpacts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"analyses": h.store.Impacts()})
}

// --- choropleth ---

func (h *Handler) getChoropleth(c *gin.Context) {
	granularity := h.store.Granularity()
	set, ok := domain.BoundarySetForGranularity(granularity)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"granularity":   granularity,
			"boundary_data": false,
			"features":      []domain.EnrichedFeature{},
		})
		return
	}

	features, err := h.boundaryFeatures(c, set)
	if err != nil {
		// Degrade to marker rendering; the fetch failure is an ops concern,
		// not a user-facing one.
		h.logger.Warn("boundary data unavailable", "set", set, "error", err)
		c.JSON(http.StatusOK, gin.H{
			"granularity":   granularity,
			"boundary_data": false,
			"features":      []domain.EnrichedFeature{},
		})
		return
	}

	enriched := domain.BuildChoropleth(h.store.Regions(), granularity, features)
	c.JSON(http.StatusOK, gin.H{
		"granularity":   granularity,
		"boundary_data": true,
		"features":      enriched,
	})
}

func (h *Handler) boundaryFeatures(c *gin.Context, set domain.BoundarySet) ([]domain.BoundaryFeature, error) {
	if h.boundaries == nil {
		return nil, errors.New("no boundary provider configured")
	}
	return h.boundaries.Boundaries(c.Request.Context(), set)
}

// --- historical catalog ---

func (h *Handler) listHistoricalStorms(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusOK, gin.H{"storms": []hurdat2.Storm{}})
		return
	}

	basin := hurdat2.Basin(c.DefaultQuery("basin", string(hurdat2.BasinAtlantic)))
	startYear := queryInt(c, "start_year", 1980)
	endYear := queryInt(c, "end_year", 2024)

	storms, err := h.catalog.Storms(c.Request.Context(), basin, startYear, endYear)
	if err != nil {
		h.logger.Warn("historical catalog unavailable", "basin", basin, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "historical catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"basin": basin, "storms": storms})
}

type importStormRequest struct {
	Basin          string  `json:"basin"`
	BufferRadiusKm float64 `json:"buffer_radius_km"`
}

func (h *Handler) importHistoricalStorm(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "historical catalog not configured"})
		return
	}

	var req importStormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	if req.Basin == "" {
		req.Basin = string(hurdat2.BasinAtlantic)
	}
	if req.BufferRadiusKm <= 0 {
		req.BufferRadiusKm = 100
	}

	storm, err := h.catalog.Storm(c.Request.Context(), hurdat2.Basin(req.Basin), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	path := h.store.AddEventPath(storm.EventPath(req.BufferRadiusKm))
	c.JSON(http.StatusCreated, path)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if s := c.Query(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
