package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithRunID_And_RunIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got, ok := RunIDFromCtx(WithRunID(context.Background(), id))
	if !ok {
		t.Fatal("expected ok=true for valid UUID")
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
}

func TestRunIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := RunIDFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestRunIDFromCtx_NilUUID(t *testing.T) {
	t.Parallel()

	if _, ok := RunIDFromCtx(WithRunID(context.Background(), uuid.Nil)); ok {
		t.Fatal("expected ok=false for uuid.Nil")
	}
}

func TestRunIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("run_id"), "not-a-uuid")
	if _, ok := RunIDFromCtx(ctx); ok {
		t.Fatal("expected ok=false for wrong type")
	}
}

func TestWithSplit_And_SplitFromCtx(t *testing.T) {
	t.Parallel()

	if got := SplitFromCtx(WithSplit(context.Background(), "train")); got != "train" {
		t.Fatalf("expected train, got %s", got)
	}
	if got := SplitFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
