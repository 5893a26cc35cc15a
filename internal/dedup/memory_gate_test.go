package dedup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryGateFirstAdmission(t *testing.T) {
	gate := NewMemoryGate(10)
	ctx := context.Background()

	admitted, err := gate.Admit(ctx, "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !admitted {
		t.Error("first admission should succeed")
	}

	admitted, _ = gate.Admit(ctx, "evt-1")
	if admitted {
		t.Error("second admission of the same id should be rejected")
	}
}

func TestMemoryGateEmptyIDAlwaysAdmitted(t *testing.T) {
	gate := NewMemoryGate(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		admitted, err := gate.Admit(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !admitted {
			t.Fatal("empty id must always be admitted")
		}
	}

	if gate.Size() != 0 {
		t.Errorf("empty ids must not occupy the window, size = %d", gate.Size())
	}
}

func TestMemoryGateFIFOEviction(t *testing.T) {
	gate := NewMemoryGate(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		gate.Admit(ctx, fmt.Sprintf("evt-%d", i))
	}

	if gate.Size() != 3 {
		t.Fatalf("expected window of 3, got %d", gate.Size())
	}

	// evt-0 was evicted by admission order; a redelivery is admitted again.
	admitted, _ := gate.Admit(ctx, "evt-0")
	if !admitted {
		t.Error("evicted id should be re-admissible")
	}

	// evt-1 through evt-3 are still protected... except evt-1, which the
	// re-admission of evt-0 just pushed out.
	admitted, _ = gate.Admit(ctx, "evt-2")
	if admitted {
		t.Error("evt-2 should still be protected")
	}
	admitted, _ = gate.Admit(ctx, "evt-3")
	if admitted {
		t.Error("evt-3 should still be protected")
	}
}

func TestMemoryGateEvictionDrivenByAdmissionNotReference(t *testing.T) {
	gate := NewMemoryGate(2)
	ctx := context.Background()

	gate.Admit(ctx, "a")
	gate.Admit(ctx, "b")

	// Rejected redeliveries of "a" must not refresh its position.
	gate.Admit(ctx, "a")
	gate.Admit(ctx, "a")

	gate.Admit(ctx, "c") // evicts "a", the oldest admission

	admitted, _ := gate.Admit(ctx, "a")
	if !admitted {
		t.Error("a should have been evicted despite recent references")
	}
	// Re-admitting "a" pushed out "b"; "c" remains protected.
	admitted, _ = gate.Admit(ctx, "c")
	if admitted {
		t.Error("c should still be protected")
	}
}

func TestRedisGateEmptyID(t *testing.T) {
	// The empty-id path never reaches the client.
	gate := NewRedisGate(nil, 0, discardLogger())

	admitted, err := gate.Admit(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !admitted {
		t.Error("empty id must always be admitted")
	}
}
