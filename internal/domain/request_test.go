package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCurrentYear = 2026

func query(kv ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

func TestParseAnalysisRequest_Defaults(t *testing.T) {
	req, err := ParseAnalysisRequest(query("latitude", "-3.4653", "longitude", "-62.2159"), testCurrentYear)
	require.NoError(t, err)

	assert.InDelta(t, -3.4653, req.Latitude, 1e-9)
	assert.InDelta(t, -62.2159, req.Longitude, 1e-9)
	assert.InDelta(t, DefaultDistanceKm, req.DistanceKm, 1e-9)
	assert.Equal(t, testCurrentYear-1, req.BaseYear)
}

func TestParseAnalysisRequest_AllParams(t *testing.T) {
	req, err := ParseAnalysisRequest(query(
		"latitude", "10.5", "longitude", "20.25", "distance", "42.5", "year", "2019",
	), testCurrentYear)
	require.NoError(t, err)

	assert.Equal(t, AnalysisRequest{Latitude: 10.5, Longitude: 20.25, DistanceKm: 42.5, BaseYear: 2019}, req)
}

func TestParseAnalysisRequest_EmptyOptionalsUseDefaults(t *testing.T) {
	req, err := ParseAnalysisRequest(query("latitude", "1", "longitude", "2", "distance", " ", "year", ""), testCurrentYear)
	require.NoError(t, err)
	assert.InDelta(t, DefaultDistanceKm, req.DistanceKm, 1e-9)
	assert.Equal(t, testCurrentYear-1, req.BaseYear)
}

func TestParseAnalysisRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want string
	}{
		{"missing latitude", query("longitude", "1"), "latitude is required"},
		{"missing longitude", query("latitude", "1"), "longitude is required"},
		{"bad latitude", query("latitude", "north", "longitude", "1"), "latitude must be a number"},
		{"bad longitude", query("latitude", "1", "longitude", "1,5"), "longitude must be a number"},
		{"bad distance", query("latitude", "1", "longitude", "1", "distance", "far"), "distance must be a number"},
		{"fractional year", query("latitude", "1", "longitude", "1", "year", "2020.5"), "year must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysisRequest(tt.q, testCurrentYear)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Message)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestParseAnalysisRequest_OverflowIsRangeError(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want string
	}{
		{"huge latitude", query("latitude", "1e400", "longitude", "1"), "Invalid coordinates"},
		{"huge negative longitude", query("latitude", "1", "longitude", "-1e400"), "Invalid coordinates"},
		{"huge distance", query("latitude", "1", "longitude", "1", "distance", "1e400"), "Invalid distance (0-1000 km)"},
		{"huge year", query("latitude", "1", "longitude", "1", "year", "99999999999999999999"), "Invalid year (2015-2026)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseAnalysisRequest(tt.q, testCurrentYear)
			require.NoError(t, err)

			err = req.Validate(testCurrentYear)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Message)
		})
	}
}

func TestValidate_Boundaries(t *testing.T) {
	valid := AnalysisRequest{Latitude: 0, Longitude: 0, DistanceKm: 10, BaseYear: 2020}

	tests := []struct {
		name   string
		mutate func(r *AnalysisRequest)
		want   string
	}{
		{"latitude -90", func(r *AnalysisRequest) { r.Latitude = -90 }, ""},
		{"latitude 90", func(r *AnalysisRequest) { r.Latitude = 90 }, ""},
		{"latitude below", func(r *AnalysisRequest) { r.Latitude = -90.0001 }, "Invalid coordinates"},
		{"latitude above", func(r *AnalysisRequest) { r.Latitude = 90.0001 }, "Invalid coordinates"},
		{"longitude -180", func(r *AnalysisRequest) { r.Longitude = -180 }, ""},
		{"longitude 180", func(r *AnalysisRequest) { r.Longitude = 180 }, ""},
		{"longitude below", func(r *AnalysisRequest) { r.Longitude = -180.5 }, "Invalid coordinates"},
		{"longitude above", func(r *AnalysisRequest) { r.Longitude = 181 }, "Invalid coordinates"},
		{"distance zero", func(r *AnalysisRequest) { r.DistanceKm = 0 }, "Invalid distance (0-1000 km)"},
		{"distance negative", func(r *AnalysisRequest) { r.DistanceKm = -5 }, "Invalid distance (0-1000 km)"},
		{"distance tiny", func(r *AnalysisRequest) { r.DistanceKm = 0.001 }, ""},
		{"distance 1000", func(r *AnalysisRequest) { r.DistanceKm = 1000 }, ""},
		{"distance above", func(r *AnalysisRequest) { r.DistanceKm = 1000.1 }, "Invalid distance (0-1000 km)"},
		{"year 2015", func(r *AnalysisRequest) { r.BaseYear = 2015 }, ""},
		{"year 2014", func(r *AnalysisRequest) { r.BaseYear = 2014 }, "Invalid year (2015-2026)"},
		{"year current", func(r *AnalysisRequest) { r.BaseYear = testCurrentYear }, ""},
		{"year future", func(r *AnalysisRequest) { r.BaseYear = testCurrentYear + 1 }, "Invalid year (2015-2026)"},
		{"coordinates reported before distance", func(r *AnalysisRequest) {
			r.Latitude = 100
			r.DistanceKm = 0
		}, "Invalid coordinates"},
		{"distance reported before year", func(r *AnalysisRequest) {
			r.DistanceKm = 5000
			r.BaseYear = 1999
		}, "Invalid distance (0-1000 km)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate(testCurrentYear)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, IsClientError(err))
		})
	}
}

func TestValidate_NaNCoordinates(t *testing.T) {
	req, err := ParseAnalysisRequest(query("latitude", "NaN", "longitude", "0"), testCurrentYear)
	require.NoError(t, err)
	assert.EqualError(t, req.Validate(testCurrentYear), "Invalid coordinates")
}

func TestNewLossQuery(t *testing.T) {
	req := AnalysisRequest{Latitude: 1, Longitude: 2, DistanceKm: 3, BaseYear: 2018}
	q := NewLossQuery(req, testCurrentYear)

	assert.Equal(t, 2018, q.BaseYear)
	assert.Equal(t, testCurrentYear, q.CompareYear)
	assert.Equal(t, LatLon{Lat: 1, Lon: 2}, q.Area.Center)
	assert.InDelta(t, 3000, q.Area.RadiusMeters, 1e-9)
}
