package geoengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	gobreaker "github.com/sony/gobreaker/v2"
)

const breakerName = "geoengine"

// ErrCircuitOpen is returned, wrapped in domain.ErrUpstream, while the breaker
// rejects calls.
var ErrCircuitOpen = errors.New("analytics circuit open")

// BreakerSettings configures the circuit breaker around the analytics client.
type BreakerSettings struct {
	FailureThreshold uint32        // consecutive failures that open the circuit
	OpenTimeout      time.Duration // time spent open before a half-open probe
}

// Breaker guards an Analyzer with a circuit breaker. Calls that end in a
// NoImageryError count as successes: the service answered correctly.
type Breaker struct {
	inner   domain.Analyzer
	ready   domain.ReadinessChecker
	cb      *gobreaker.CircuitBreaker[domain.LossMap]
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewBreaker wraps inner. If inner also implements domain.ReadinessChecker,
// readiness checks are forwarded to it while the circuit is not open.
func NewBreaker(inner domain.Analyzer, s BreakerSettings, metrics *observability.Metrics, logger *slog.Logger) *Breaker {
	b := &Breaker{
		inner:   inner,
		metrics: metrics,
		logger:  logger,
	}
	if rc, ok := inner.(domain.ReadinessChecker); ok {
		b.ready = rc
	}

	metrics.BreakerState.Set(stateValue(gobreaker.StateClosed))
	b.cb = gobreaker.NewCircuitBreaker[domain.LossMap](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(stateValue(to))
		},
		IsSuccessful: func(err error) bool {
			var ni *domain.NoImageryError
			return err == nil || errors.As(err, &ni) || errors.Is(err, context.Canceled)
		},
	})
	return b
}

// ComputeLossMap forwards to the wrapped analyzer unless the circuit is open.
func (b *Breaker) ComputeLossMap(ctx context.Context, q domain.LossQuery) (domain.LossMap, error) {
	m, err := b.cb.Execute(func() (domain.LossMap, error) {
		return b.inner.ComputeLossMap(ctx, q)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.metrics.UpstreamRequests.WithLabelValues(opComputeMap, "rejected").Inc()
		return domain.LossMap{}, b.rejection()
	}
	return m, err
}

// CheckReadiness fails while the circuit is open.
func (b *Breaker) CheckReadiness(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return b.rejection()
	}
	if b.ready == nil {
		return nil
	}
	return b.ready.CheckReadiness(ctx)
}

// rejection reports a call refused by the breaker. Half-open rejections
// happen while the single probe request is in flight.
func (b *Breaker) rejection() error {
	return fmt.Errorf("%w: %w (state %s)", domain.ErrUpstream, ErrCircuitOpen, b.State())
}

// State returns the current breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
