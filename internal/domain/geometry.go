package domain

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for study-area geometry.
const EarthRadiusMeters = 6371008.8

// polygonVertices is the number of distinct vertices in the study-area ring.
const polygonVertices = 64

// LatLon is a WGS-84 coordinate in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is a lat/lon rectangle in degrees. West may exceed East when the
// rectangle crosses the antimeridian.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Continuous returns the rectangle with East shifted past 180 when it
// crosses the antimeridian, so that West <= East always holds. Web maps
// expect this form; the analytics service takes the wrapped one.
func (b Bounds) Continuous() Bounds {
	if b.West > b.East {
		b.East += 360
	}
	return b
}

// StudyArea is the circular region analysed around the requested point.
type StudyArea struct {
	Center       LatLon
	RadiusMeters float64
}

// NewStudyArea builds a study area from a center and a radius in kilometers.
func NewStudyArea(lat, lon, distanceKm float64) StudyArea {
	return StudyArea{
		Center:       LatLon{Lat: lat, Lon: lon},
		RadiusMeters: distanceKm * 1000,
	}
}

func (a StudyArea) cap() s2.Cap {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Center.Lat, a.Center.Lon))
	return s2.CapFromCenterAngle(center, s1.Angle(a.RadiusMeters/EarthRadiusMeters))
}

// Bounds returns the smallest lat/lon rectangle containing the study area.
func (a StudyArea) Bounds() Bounds {
	r := a.cap().RectBound()
	return Bounds{
		South: r.Lo().Lat.Degrees(),
		West:  r.Lo().Lng.Degrees(),
		North: r.Hi().Lat.Degrees(),
		East:  r.Hi().Lng.Degrees(),
	}
}

// Ring returns a closed, counter-clockwise ring of [lon, lat] positions
// approximating the study-area circle, in GeoJSON order.
func (a StudyArea) Ring() [][2]float64 {
	ring := make([][2]float64, 0, polygonVertices+1)
	step := 360.0 / polygonVertices
	for i := 0; i < polygonVertices; i++ {
		// Decreasing bearings walk the circle counter-clockwise.
		p := destination(a.Center, 360-float64(i)*step, a.RadiusMeters)
		ring = append(ring, [2]float64{p.Lon, p.Lat})
	}
	return append(ring, ring[0])
}

// destination returns the point reached from start after travelling distance
// meters along the great circle with the given initial bearing in degrees.
func destination(start LatLon, bearing, distance float64) LatLon {
	p := s2.LatLngFromDegrees(start.Lat, start.Lon)
	brng := bearing * math.Pi / 180
	angular := distance / EarthRadiusMeters

	lat1 := p.Lat.Radians()
	lon1 := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))

	out := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lon2)}.Normalized()
	return LatLon{Lat: out.Lat.Degrees(), Lon: out.Lng.Degrees()}
}
