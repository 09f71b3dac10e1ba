// Package render produces the HTML pages served to browsers: the vegetation
// loss map and the request dashboard.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/couchcryptid/vegloss-service/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultZoom    = 10
	overlayOpacity = 0.8
	studyAreaFill  = 0.1
	attribution    = "Google Earth Engine"
)

// Renderer executes the embedded page templates. It is safe for concurrent use.
type Renderer struct {
	mapPage       *template.Template
	dashboardPage *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	mapPage, err := template.ParseFS(templateFS, "templates/map.html")
	if err != nil {
		return nil, fmt.Errorf("parse map template: %w", err)
	}
	dashboardPage, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &Renderer{mapPage: mapPage, dashboardPage: dashboardPage}, nil
}

type mapView struct {
	BaseYear       int
	CompareYear    int
	Lat            float64
	Lon            float64
	Zoom           int
	Bounds         domain.Bounds
	RadiusMeters   float64
	TileURL        string
	LayerName      string
	Attribution    string
	OverlayOpacity float64
	FillOpacity    float64
	MarkerPopup    string // HTML; every interpolated value is escaped
	CirclePopup    string
	Place          string
	Legend         []domain.SeverityClass
	BaseScenes     int
	CompareScenes  int
	RequestID      string
}

// RenderMap writes the full map page for a successful analysis.
func (r *Renderer) RenderMap(w io.Writer, res domain.AnalysisResult) error {
	req := res.Request
	popup := fmt.Sprintf("Center Point<br>Lat: %s<br>Lon: %s<br>Year: %d",
		formatFloat(req.Latitude), formatFloat(req.Longitude), req.BaseYear)
	if name := placeName(res.Place); name != "" {
		popup += "<br>" + template.HTMLEscapeString(name)
	}

	view := mapView{
		BaseYear:       req.BaseYear,
		CompareYear:    res.CompareYear,
		Lat:            res.Area.Center.Lat,
		Lon:            res.Area.Center.Lon,
		Zoom:           defaultZoom,
		Bounds:         res.Area.Bounds().Continuous(),
		RadiusMeters:   res.Area.RadiusMeters,
		TileURL:        res.Map.TileURL,
		LayerName:      fmt.Sprintf("Vegetation Loss since %d", req.BaseYear),
		Attribution:    attribution,
		OverlayOpacity: overlayOpacity,
		FillOpacity:    studyAreaFill,
		MarkerPopup:    popup,
		CirclePopup:    fmt.Sprintf("Study area: %s km radius", formatFloat(req.DistanceKm)),
		Place:          res.Place.FormattedAddress,
		Legend:         domain.SeverityClasses(),
		BaseScenes:     res.Map.BaseScenes,
		CompareScenes:  res.Map.CompareScenes,
		RequestID:      res.RequestID,
	}
	if err := r.mapPage.Execute(w, view); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}

type dashboardView struct {
	Years           []int
	DefaultYear     int
	DefaultDistance float64
	MaxDistance     float64
}

// RenderDashboard writes the request form. Years run from currentYear down to
// the first year with Sentinel-2 surface reflectance coverage.
func (r *Renderer) RenderDashboard(w io.Writer, currentYear int) error {
	years := make([]int, 0, currentYear-domain.MinBaseYear+1)
	for y := currentYear; y >= domain.MinBaseYear; y-- {
		years = append(years, y)
	}
	view := dashboardView{
		Years:           years,
		DefaultYear:     currentYear - 1,
		DefaultDistance: domain.DefaultDistanceKm,
		MaxDistance:     domain.MaxDistanceKm,
	}
	if err := r.dashboardPage.Execute(w, view); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// placeName is the short label for the marker popup; the full address goes
// in the legend.
func placeName(p domain.GeocodingResult) string {
	if p.PlaceName != "" {
		return p.PlaceName
	}
	return p.FormattedAddress
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
