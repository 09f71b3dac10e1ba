package domain

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/vegloss-service/internal/validation"
)

const (
	// DefaultDistanceKm is used when the distance parameter is omitted.
	DefaultDistanceKm = 10
	// MaxDistanceKm is the largest accepted study radius.
	MaxDistanceKm = 1000
	// MinBaseYear is the first year with Sentinel-2 surface reflectance coverage.
	MinBaseYear = 2015
)

// AnalysisRequest holds the validated inputs of one analysis.
type AnalysisRequest struct {
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
	DistanceKm float64 `json:"distance" validate:"gt=0,lte=1000"`
	BaseYear   int     `json:"year" validate:"gte=2015"`
}

// ParseAnalysisRequest reads latitude, longitude, distance and year from query
// parameters. Distance defaults to DefaultDistanceKm and year to the year
// before currentYear. The result is not range-checked; call Validate.
func ParseAnalysisRequest(q url.Values, currentYear int) (AnalysisRequest, error) {
	req := AnalysisRequest{
		DistanceKm: DefaultDistanceKm,
		BaseYear:   currentYear - 1,
	}

	var err error
	if req.Latitude, err = requiredFloat(q, "latitude"); err != nil {
		return AnalysisRequest{}, err
	}
	if req.Longitude, err = requiredFloat(q, "longitude"); err != nil {
		return AnalysisRequest{}, err
	}

	if s := strings.TrimSpace(q.Get("distance")); s != "" {
		req.DistanceKm, err = parseFloat(s)
		if err != nil {
			return AnalysisRequest{}, invalid("distance", "distance must be a number")
		}
	}

	if s := strings.TrimSpace(q.Get("year")); s != "" {
		req.BaseYear, err = strconv.Atoi(s)
		if errors.Is(err, strconv.ErrRange) {
			// Atoi clamps to the int range; Validate rejects it.
			err = nil
		}
		if err != nil {
			return AnalysisRequest{}, invalid("year", "year must be an integer")
		}
	}

	return req, nil
}

func requiredFloat(q url.Values, name string) (float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return 0, invalid(name, "%s is required", name)
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0, invalid(name, "%s must be a number", name)
	}
	return v, nil
}

// parseFloat accepts out-of-range literals such as 1e400 as ±Inf so that
// Validate reports them as range errors rather than malformed numbers.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	return v, err
}

// Validate checks the request against the fixed coordinate, distance and year
// ranges. Coordinates are checked first, then distance, then year.
func (r AnalysisRequest) Validate(currentYear int) error {
	if verr := validation.ValidateStruct(&r); verr != nil {
		failed := verr.Fields()
		switch {
		case failed["Latitude"] || failed["Longitude"]:
			return invalid("coordinates", "Invalid coordinates")
		case failed["DistanceKm"]:
			return invalid("distance", "Invalid distance (0-%d km)", MaxDistanceKm)
		case failed["BaseYear"]:
			return invalid("year", "Invalid year (%d-%d)", MinBaseYear, currentYear)
		}
		return invalid("request", "%s", verr.Error())
	}
	if r.BaseYear > currentYear {
		return invalid("year", "Invalid year (%d-%d)", MinBaseYear, currentYear)
	}
	return nil
}

// StudyArea returns the circular region described by the request.
func (r AnalysisRequest) StudyArea() StudyArea {
	return NewStudyArea(r.Latitude, r.Longitude, r.DistanceKm)
}
