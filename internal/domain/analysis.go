package domain

import "time"

// LossQuery is everything the analytics service needs to compute one
// vegetation-loss severity map.
type LossQuery struct {
	Area        StudyArea
	BaseYear    int
	CompareYear int
}

// NewLossQuery builds the query for a validated request, comparing the base
// year against currentYear.
func NewLossQuery(req AnalysisRequest, currentYear int) LossQuery {
	return LossQuery{
		Area:        req.StudyArea(),
		BaseYear:    req.BaseYear,
		CompareYear: currentYear,
	}
}

// LossMap is the analytics service's answer: a tile layer of the severity image.
type LossMap struct {
	MapID         string `json:"map_id"`
	TileURL       string `json:"tile_url"` // template with {z}, {x}, {y}
	BaseScenes    int    `json:"base_scenes"`
	CompareScenes int    `json:"compare_scenes"`
	Cached        bool   `json:"-"`
}

// GeocodingResult names the place at a coordinate. The zero value means the
// place is unknown.
type GeocodingResult struct {
	FormattedAddress string // full label, e.g. "Coari, Amazonas, Brazil"
	PlaceName        string // shortest label, e.g. "Coari"
}

// AnalysisResult is what gets rendered for a successful request.
type AnalysisResult struct {
	RequestID   string
	Request     AnalysisRequest
	Area        StudyArea
	CompareYear int
	Map         LossMap
	Place       GeocodingResult // reverse-geocoded center, zero when unknown
	Duration    time.Duration
}

// AnalysisEvent is published after each successful analysis.
type AnalysisEvent struct {
	RequestID     string    `json:"request_id"`
	Center        LatLon    `json:"center"`
	DistanceKm    float64   `json:"distance_km"`
	BaseYear      int       `json:"base_year"`
	CompareYear   int       `json:"compare_year"`
	MapID         string    `json:"map_id"`
	BaseScenes    int       `json:"base_scenes"`
	CompareScenes int       `json:"compare_scenes"`
	CacheHit      bool      `json:"cache_hit"`
	Place         string    `json:"place,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// NewAnalysisEvent summarises a result for publication.
func NewAnalysisEvent(res AnalysisResult, processedAt time.Time) AnalysisEvent {
	return AnalysisEvent{
		RequestID:     res.RequestID,
		Center:        res.Area.Center,
		DistanceKm:    res.Request.DistanceKm,
		BaseYear:      res.Request.BaseYear,
		CompareYear:   res.CompareYear,
		MapID:         res.Map.MapID,
		BaseScenes:    res.Map.BaseScenes,
		CompareScenes: res.Map.CompareScenes,
		CacheHit:      res.Map.Cached,
		Place:         res.Place.FormattedAddress,
		DurationMs:    res.Duration.Milliseconds(),
		ProcessedAt:   processedAt,
	}
}
