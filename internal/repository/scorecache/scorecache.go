package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	keyPrefix = "credit-score"
	scanCount = 200
)

type scoreCache struct {
	client redis.Cmdable
	ttl    time.Duration
	tracer trace.Tracer
	log    *zap.Logger

	lookups metric.Int64Counter
	evicted metric.Int64Counter
}

// Key is the cache key of a customer's report for a calendar year.
func Key(customerID uint64, year int) string {
	return fmt.Sprintf("%s:%d:%d", keyPrefix, customerID, year)
}

// Get implements repository.ScoreCache. A miss returns (nil, nil).
func (s *scoreCache) Get(ctx context.Context, customerID uint64, year int) (*domain.CreditReport, error) {
	ctx, span := s.tracer.Start(ctx, "cache.score.Get")
	defer span.End()

	key := Key(customerID, year)
	span.SetAttributes(attribute.String("cache.key", key))

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
			span.SetStatus(codes.Ok, "Cache miss")
			return nil, nil
		}

		s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		span.SetStatus(codes.Error, "Cache read failed")
		span.RecordError(err)
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var report domain.CreditReport
	if err := json.Unmarshal(raw, &report); err != nil {
		// A payload we cannot decode is treated as a miss and dropped.
		s.log.Warn("Discarding undecodable credit report",
			zap.String("key", key),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)
		s.client.Del(ctx, key)
		s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "corrupt")))
		return nil, nil
	}

	s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
	span.SetStatus(codes.Ok, "Cache hit")

	return &report, nil
}

// Set implements repository.ScoreCache.
func (s *scoreCache) Set(ctx context.Context, report domain.CreditReport) error {
	ctx, span := s.tracer.Start(ctx, "cache.score.Set")
	defer span.End()

	key := Key(report.CustomerID, report.Year)
	span.SetAttributes(attribute.String("cache.key", key))

	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode credit report: %w", err)
	}

	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		span.SetStatus(codes.Error, "Cache write failed")
		span.RecordError(err)
		return fmt.Errorf("write %s: %w", key, err)
	}

	span.SetStatus(codes.Ok, "Cached")
	return nil
}

// Invalidate implements repository.ScoreCache.
func (s *scoreCache) Invalidate(ctx context.Context, customerID uint64) error {
	ctx, span := s.tracer.Start(ctx, "cache.score.Invalidate")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", int64(customerID)))

	return s.deleteMatching(ctx, span, fmt.Sprintf("%s:%d:*", keyPrefix, customerID))
}

// Flush implements repository.ScoreCache.
func (s *scoreCache) Flush(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "cache.score.Flush")
	defer span.End()

	return s.deleteMatching(ctx, span, keyPrefix+":*")
}

func (s *scoreCache) deleteMatching(ctx context.Context, span trace.Span, pattern string) error {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			span.SetStatus(codes.Error, "Cache scan failed")
			span.RecordError(err)
			return fmt.Errorf("scan %s: %w", pattern, err)
		}

		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				span.SetStatus(codes.Error, "Cache delete failed")
				span.RecordError(err)
				return fmt.Errorf("delete %s: %w", pattern, err)
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.evicted.Add(ctx, removed)
	s.log.Debug("Credit reports evicted",
		zap.String("pattern", pattern),
		zap.Int64("count", removed),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)
	span.SetStatus(codes.Ok, "Evicted")

	return nil
}

func NewScoreCache(
	client redis.Cmdable,
	ttl time.Duration,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.ScoreCache {
	lookups, _ := meter.Int64Counter(
		"cache.score.lookups",
		metric.WithDescription("Credit report cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)

	evicted, _ := meter.Int64Counter(
		"cache.score.evicted",
		metric.WithDescription("Credit reports removed from the cache"),
		metric.WithUnit("{entry}"),
	)

	return &scoreCache{
		client:  client,
		ttl:     ttl,
		tracer:  tracer,
		log:     log,
		lookups: lookups,
		evicted: evicted,
	}
}
