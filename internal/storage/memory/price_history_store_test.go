package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

func TestPriceHistoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewPriceHistoryStore()

	for _, ts := range []int64{300, 100, 200} {
		err := s.Insert(ctx, &domain.PricePoint{
			PostID:      "p1",
			Price:       dec("0.000001"),
			Volume:      dec("1.0"),
			TimestampMs: ts,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	s.Insert(ctx, &domain.PricePoint{PostID: "p2", Price: dec("0.5"), TimestampMs: 150})

	points, err := s.GetByPost(ctx, "p1", 0, 0, 0)
	if err != nil {
		t.Fatalf("GetByPost: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len = %d, want 3", len(points))
	}
	for i, want := range []int64{100, 200, 300} {
		if points[i].TimestampMs != want {
			t.Errorf("points[%d].TimestampMs = %d, want %d", i, points[i].TimestampMs, want)
		}
	}

	ranged, err := s.GetByPost(ctx, "p1", 150, 250, 0)
	if err != nil {
		t.Fatalf("GetByPost range: %v", err)
	}
	if len(ranged) != 1 || ranged[0].TimestampMs != 200 {
		t.Errorf("ranged = %v", ranged)
	}

	limited, err := s.GetByPost(ctx, "p1", 0, 0, 2)
	if err != nil {
		t.Fatalf("GetByPost limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}

	empty, err := s.GetByPost(ctx, "unknown", 0, 0, 0)
	if err != nil {
		t.Fatalf("GetByPost unknown: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown post should have no points, got %d", len(empty))
	}
}

func TestPriceHistoryStoreInvalid(t *testing.T) {
	s := NewPriceHistoryStore()
	if err := s.Insert(context.Background(), &domain.PricePoint{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
