package port

import (
	"context"
	"errors"
)

// ErrEmptyInsights marks an upstream call that succeeded but produced no
// usable content.
var ErrEmptyInsights = errors.New("model returned no insights")

// InsightSource derives a text summary from a transcript via a third-party
// model call.
type InsightSource interface {
	GenerateInsights(ctx context.Context, model, transcript string) (string, error)
}
