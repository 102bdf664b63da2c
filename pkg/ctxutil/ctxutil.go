// Package ctxutil carries pipeline run metadata through a context.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	runIDKey ctxKey = "run_id"
	splitKey ctxKey = "split"
)

// WithRunID stores the pipeline run ID in the context.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromCtx extracts the run ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func RunIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithSplit stores the dataset split being processed (train, validation, test).
func WithSplit(ctx context.Context, split string) context.Context {
	return context.WithValue(ctx, splitKey, split)
}

// SplitFromCtx extracts the split name from the context.
// Returns an empty string if absent.
func SplitFromCtx(ctx context.Context) string {
	s, _ := ctx.Value(splitKey).(string)
	return s
}
