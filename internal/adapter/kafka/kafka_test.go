package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/config"
	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(now time.Time) domain.AnalysisEvent {
	return domain.AnalysisEvent{
		RequestID:   "req-1",
		Center:      domain.LatLon{Lat: -3.4653, Lon: -62.2159},
		DistanceKm:  10,
		BaseYear:    2020,
		CompareYear: 2026,
		MapID:       "abc",
		BaseScenes:  42,
		CacheHit:    true,
		ProcessedAt: now,
	}
}

func testPublisher() *Publisher {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "test"}
	return NewPublisher(cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)

	msg, err := serializeToMessage(testEvent(now))
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"map_id":"abc"`)
	assert.Contains(t, string(msg.Value), `"cache_hit":true`)
	assert.Contains(t, string(msg.Value), `"center":{"lat":-3.4653,"lon":-62.2159}`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(eventType), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestPublisher_Completion(t *testing.T) {
	p := testPublisher()
	msgs := []kafkago.Message{{Key: []byte("a")}, {Key: []byte("b")}}

	p.completion(msgs, nil)
	assert.InDelta(t, 2, testutil.ToFloat64(p.metrics.EventsPublished), 0)

	p.completion(msgs[:1], errors.New("leader not available"))
	assert.InDelta(t, 1, testutil.ToFloat64(p.metrics.PublishErrors), 0)
}

func TestPublisher_PublishAfterClose(t *testing.T) {
	p := testPublisher()
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), testEvent(time.Now()))
	require.Error(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(p.metrics.PublishErrors), 0)
}
