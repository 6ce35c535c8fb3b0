package port

import (
	"context"
	"time"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
)

// StatusStore persists job status records with a fixed, refreshed-on-write
// TTL. Reads return (nil, nil) when the record is absent or expired.
type StatusStore interface {
	WriteStatus(ctx context.Context, job *entity.Job) error
	ReadStatus(ctx context.Context, requestID string) (*entity.Job, error)
}

// ResultStore caches result payloads under their own TTL, optionally
// compressed. A compressed write round-trips byte-for-byte through a read
// with the matching flag.
type ResultStore interface {
	WriteResult(ctx context.Context, requestID string, rec *entity.ResultRecord, ttl time.Duration, compressed bool) error
	ReadResult(ctx context.Context, requestID string, compressed bool) (*entity.ResultRecord, error)
}
