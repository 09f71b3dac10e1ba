package mapbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	json "github.com/goccy/go-json"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	// Coarse feature types only: a study area is kilometers wide, so an
	// address or POI would be misleading.
	placeTypes   = "place,locality,region,country"
	maxErrorBody = 1 << 10
)

// Client reverse-geocodes study-area centers with the Mapbox Geocoding API.
// It implements domain.Geocoder.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode names the place at lat/lon. A zero result with a nil error
// means Mapbox knows no place there (open ocean, remote areas).
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	features, err := c.lookup(ctx, c.reverseURL(lat, lon))
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	}

	place, ok := firstNamed(features)
	if !ok {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("no place at coordinates", "lat", lat, "lon", lon)
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return place, nil
}

// reverseURL builds {base}/{lon},{lat}.json; Mapbox takes longitude first.
func (c *Client) reverseURL(lat, lon float64) string {
	coord := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("types", placeTypes)
	q.Set("limit", "1")
	return c.baseURL + "/" + coord + ".json?" + q.Encode()
}

func (c *Client) lookup(ctx context.Context, rawURL string) ([]feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build reverse geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			// url.Error repeats the URL, which carries the access token.
			err = uerr.Err
		}
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("reverse geocode: mapbox status %d: %s", resp.StatusCode, msg)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("reverse geocode: decode body: %w", err)
	}
	return body.Features, nil
}

// firstNamed returns the first feature that carries a label.
func firstNamed(features []feature) (domain.GeocodingResult, bool) {
	for _, f := range features {
		if f.PlaceName == "" {
			continue
		}
		name := f.Text
		if name == "" {
			name = f.PlaceName
		}
		return domain.GeocodingResult{FormattedAddress: f.PlaceName, PlaceName: name}, true
	}
	return domain.GeocodingResult{}, false
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	PlaceName string `json:"place_name"` // full label
	Text      string `json:"text"`       // the feature's own name
}
