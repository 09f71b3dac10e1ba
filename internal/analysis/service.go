// Package analysis orchestrates a single vegetation-loss request: validation,
// the analytics call, optional enrichment and event publication.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
)

// geocodeTimeout caps the time spent labelling the center point.
const geocodeTimeout = 3 * time.Second

// Service runs analyses. Geocoder and Publisher are optional.
type Service struct {
	analyzer  domain.Analyzer
	geocoder  domain.Geocoder
	publisher domain.Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. Pass nil for geocoder or publisher to disable them.
func New(a domain.Analyzer, g domain.Geocoder, p domain.Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		analyzer:  a,
		geocoder:  g,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
	}
}

// Analyze validates req and computes its severity map. Validation and
// missing-imagery failures satisfy domain.IsClientError; analytics failures
// wrap domain.ErrUpstream.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	start := domain.Now()
	currentYear := start.Year()
	logger := s.logger.With("request_id", observability.RequestID(ctx))

	if err := req.Validate(currentYear); err != nil {
		s.metrics.AnalysisRequests.WithLabelValues("invalid").Inc()
		return domain.AnalysisResult{}, err
	}

	q := domain.NewLossQuery(req, currentYear)
	logger.Info("processing request",
		"lat", req.Latitude,
		"lon", req.Longitude,
		"distance_km", req.DistanceKm,
		"base_year", q.BaseYear,
		"compare_year", q.CompareYear,
	)

	m, err := s.analyzer.ComputeLossMap(ctx, q)
	if err != nil {
		s.metrics.AnalysisRequests.WithLabelValues(outcome(err)).Inc()
		return domain.AnalysisResult{}, err
	}

	res := domain.AnalysisResult{
		RequestID:   observability.RequestID(ctx),
		Request:     req,
		Area:        q.Area,
		CompareYear: q.CompareYear,
		Map:         m,
		Place:       s.placeLabel(ctx, logger, q.Area.Center),
	}
	res.Duration = domain.Now().Sub(start)

	s.metrics.AnalysisRequests.WithLabelValues("success").Inc()
	s.metrics.AnalysisDuration.Observe(res.Duration.Seconds())
	logger.Info("analysis complete",
		"map_id", m.MapID,
		"cache_hit", m.Cached,
		"base_scenes", m.BaseScenes,
		"compare_scenes", m.CompareScenes,
		"duration", res.Duration,
	)

	s.publish(ctx, logger, res)
	return res, nil
}

// CheckReadiness reports whether the analytics backend can take requests.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if rc, ok := s.analyzer.(domain.ReadinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// placeLabel reverse-geocodes the center. Failures only cost the label.
func (s *Service) placeLabel(ctx context.Context, logger *slog.Logger, c domain.LatLon) domain.GeocodingResult {
	if s.geocoder == nil {
		return domain.GeocodingResult{}
	}
	gctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	result, err := s.geocoder.ReverseGeocode(gctx, c.Lat, c.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed", "error", err)
		return domain.GeocodingResult{}
	}
	return result
}

func (s *Service) publish(ctx context.Context, logger *slog.Logger, res domain.AnalysisResult) {
	if s.publisher == nil {
		return
	}
	// The response is already decided; a canceled request must not drop the event.
	event := domain.NewAnalysisEvent(res, domain.Now())
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("publish analysis event failed", "error", err)
	}
}

func outcome(err error) string {
	var ni *domain.NoImageryError
	switch {
	case errors.As(err, &ni):
		return "no_imagery"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}
