package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
)

const (
	statusKeyPrefix = "status:"
	resultKeyPrefix = "result:"
)

// Store wraps a shared Redis client behind the status/result/counter access
// pattern. Construct it once at process start and inject it everywhere Store
// access is needed.
type Store struct {
	client    *redis.Client
	statusTTL time.Duration
	logger    *zap.Logger
}

type StoreConfig struct {
	Addr      string
	Password  string
	DB        int
	StatusTTL time.Duration
}

func NewStore(cfg StoreConfig, logger *zap.Logger) *Store {
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 2 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{
		client:    client,
		statusTTL: cfg.StatusTTL,
		logger:    logger,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// WriteStatus stores the full status record under status:{request_id},
// refreshing the status TTL on every write.
func (s *Store) WriteStatus(ctx context.Context, job *entity.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := s.client.Set(ctx, statusKeyPrefix+job.RequestID, payload, s.statusTTL).Err(); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// ReadStatus returns (nil, nil) when the record is absent or expired.
func (s *Store) ReadStatus(ctx context.Context, requestID string) (*entity.Job, error) {
	raw, err := s.client.Get(ctx, statusKeyPrefix+requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	job := &entity.Job{}
	if err := json.Unmarshal(raw, job); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return job, nil
}

// WriteResult caches a result payload under result:{request_id}. Transcripts
// can be long, so writes usually ask for compression.
func (s *Store) WriteResult(ctx context.Context, requestID string, rec *entity.ResultRecord, ttl time.Duration, compressed bool) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if compressed {
		payload = []byte(compress(payload))
	}
	if err := s.client.Set(ctx, resultKeyPrefix+requestID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// ReadResult returns (nil, nil) when no result is cached.
func (s *Store) ReadResult(ctx context.Context, requestID string, compressed bool) (*entity.ResultRecord, error) {
	raw, err := s.client.Get(ctx, resultKeyPrefix+requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	if compressed {
		raw, err = decompress(string(raw))
		if err != nil {
			return nil, fmt.Errorf("decompress result: %w", err)
		}
	}
	rec := &entity.ResultRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return rec, nil
}

// IncrementCounter increments key by amount and applies ttl only on the
// first increment of a window, so later increments refresh the value but
// never the expiration.
func (s *Store) IncrementCounter(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	count, err := s.client.IncrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	if ttl > 0 && count == amount {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			s.logger.Warn("failed to set counter expiration", zap.String("key", key), zap.Error(err))
		}
	}
	return count, nil
}

// CounterValue reads a counter without incrementing it. Missing keys read
// as zero.
func (s *Store) CounterValue(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return count, nil
}

// DeleteByPattern removes all keys matching pattern via SCAN, returning the
// number deleted.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("delete key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return deleted, nil
}
