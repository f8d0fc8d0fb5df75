package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Service {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeenAfterRecord(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "Show A", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Fatal("fresh store must not know any episodes")
	}

	if err := s.Record(ctx, "Show A", 2, 5); err != nil {
		t.Fatal(err)
	}
	seen, err = s.Seen(ctx, "Show A", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("recorded episode not found")
	}

	// A different episode of the same show stays unseen.
	seen, err = s.Seen(ctx, "Show A", 2, 6)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("episode 6 was never recorded")
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Record(ctx, "Show A", 1, 1); err != nil {
			t.Fatalf("re-record attempt %d: %v", i, err)
		}
	}
}

func TestForget(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.Record(ctx, "Show A", 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Forget(ctx, "Show A", 1, 1); err != nil {
		t.Fatal(err)
	}
	seen, err := s.Seen(ctx, "Show A", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("forgotten episode still reported as seen")
	}
}
