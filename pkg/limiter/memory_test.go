package limiter

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_Increment(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	e, err := store.Increment(ctx, "k", time.Minute, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Count != 1 || !e.WindowStart.Equal(start) {
		t.Errorf("unexpected first entry: %+v", e)
	}
	if !e.ResetAt.Equal(start.Add(time.Minute)) {
		t.Errorf("ResetAt = %v, want %v", e.ResetAt, start.Add(time.Minute))
	}

	e, _ = store.Increment(ctx, "k", time.Minute, start.Add(30*time.Second))
	if e.Count != 2 || !e.WindowStart.Equal(start) {
		t.Errorf("expected count 2 in the same window, got %+v", e)
	}

	later := start.Add(2 * time.Minute)
	e, _ = store.Increment(ctx, "k", time.Minute, later)
	if e.Count != 1 || !e.WindowStart.Equal(later) {
		t.Errorf("expected reset entry, got %+v", e)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	store.Increment(ctx, "old", time.Minute, start)
	store.Increment(ctx, "fresh", time.Minute, start.Add(50*time.Second))

	removed := store.Sweep(start.Add(61*time.Second), time.Minute)
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", store.Len())
	}
}

func TestMemoryStore_SweepLengthenedWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	store.Increment(ctx, "k", time.Minute, start)

	if removed := store.Sweep(start.Add(90*time.Second), 2*time.Minute); removed != 0 {
		t.Fatalf("expected live entry to survive, %d removed", removed)
	}
	e, _ := store.Increment(ctx, "k", 2*time.Minute, start.Add(100*time.Second))
	if e.Count != 2 {
		t.Errorf("expected count to carry over, got %d", e.Count)
	}

	if removed := store.Sweep(start.Add(3*time.Minute), 2*time.Minute); removed != 1 {
		t.Errorf("expected expired entry to be removed, %d removed", removed)
	}
}
