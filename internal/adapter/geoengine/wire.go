package geoengine

import (
	"fmt"

	"github.com/couchcryptid/vegloss-service/internal/domain"
)

// Analytics API request and response types.

type computeRequest struct {
	Region              geoJSONPolygon       `json:"region"`
	Center              point                `json:"center"`
	RadiusMeters        float64              `json:"radiusMeters"`
	Bounds              bounds               `json:"bounds"`
	BaseYear            int                  `json:"baseYear"`
	CompareYear         int                  `json:"compareYear"`
	DateRanges          []dateRange          `json:"dateRanges"`
	Collection          string               `json:"collection"`
	Bands               []string             `json:"bands"`
	CloudProperty       string               `json:"cloudProperty"`
	MaxCloudPercent     int                  `json:"maxCloudPercent"`
	CloudMask           cloudMask            `json:"cloudMask"`
	Index               index                `json:"index"`
	Composite           string               `json:"composite"`
	VegetationThreshold float64              `json:"vegetationThreshold"`
	LossThreshold       float64              `json:"lossThreshold"`
	SeverityBreaks      []float64            `json:"severityBreaks"`
	Visualization       domain.Visualization `json:"visualization"`
}

type geoJSONPolygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type cloudMask struct {
	Band string `json:"band"`
	Bits []int  `json:"bits"`
}

type index struct {
	Name string `json:"name"`
	NIR  string `json:"nir"`
	Red  string `json:"red"`
}

type computeResponse struct {
	MapID      string `json:"mapId"`
	TileURL    string `json:"tileUrl"`
	ImageCount struct {
		Base    int `json:"base"`
		Compare int `json:"compare"`
	} `json:"imageCount"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Year    int    `json:"year"`
	} `json:"error"`
}

func newComputeRequest(q domain.LossQuery) computeRequest {
	b := q.Area.Bounds()
	return computeRequest{
		Region: geoJSONPolygon{
			Type:        "Polygon",
			Coordinates: [][][2]float64{q.Area.Ring()},
		},
		Center:       point{Lat: q.Area.Center.Lat, Lon: q.Area.Center.Lon},
		RadiusMeters: q.Area.RadiusMeters,
		Bounds:       bounds{South: b.South, West: b.West, North: b.North, East: b.East},
		BaseYear:     q.BaseYear,
		CompareYear:  q.CompareYear,
		// Annual composites: the base year is compared against the full compare year.
		DateRanges:          []dateRange{yearRange(q.BaseYear), yearRange(q.CompareYear)},
		Collection:          domain.Collection,
		Bands:               domain.Bands(),
		CloudProperty:       domain.CloudPercentProp,
		MaxCloudPercent:     domain.MaxCloudPercent,
		CloudMask:           cloudMask{Band: domain.CloudMaskBand, Bits: domain.CloudMaskBits()},
		Index:               index{Name: "NDVI", NIR: domain.NIRBand, Red: domain.RedBand},
		Composite:           domain.CompositeReducer,
		VegetationThreshold: domain.VegetationThreshold,
		LossThreshold:       domain.LossThreshold,
		SeverityBreaks:      domain.SeverityBreaks(),
		Visualization:       domain.SeverityVisualization(),
	}
}

func yearRange(year int) dateRange {
	return dateRange{
		Start: fmt.Sprintf("%d-01-01", year),
		End:   fmt.Sprintf("%d-12-31", year),
	}
}
