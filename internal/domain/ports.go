package domain

import "context"

// Analyzer computes a vegetation-loss severity map for a query.
type Analyzer interface {
	ComputeLossMap(ctx context.Context, q LossQuery) (LossMap, error)
}

// Geocoder converts coordinates to place details.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// Publisher announces completed analyses to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event AnalysisEvent) error
}

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}
