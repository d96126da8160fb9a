package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

func TestHiddenServiceHideUnhide(t *testing.T) {
	t.Parallel()

	svc := NewHiddenService(docstore.NewMemoryStore())
	ctx := context.Background()

	ids, err := svc.List(ctx)
	if err != nil || len(ids) != 0 {
		t.Fatalf("initial list = %v err=%v", ids, err)
	}

	if _, err := svc.Hide(ctx, 200); err != nil {
		t.Fatalf("Hide: %v", err)
	}
	ids, err = svc.Hide(ctx, 100)
	if err != nil {
		t.Fatalf("Hide: %v", err)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 200 {
		t.Fatalf("ids = %v", ids)
	}

	// Hiding twice is a no-op.
	ids, err = svc.Hide(ctx, 100)
	if err != nil || len(ids) != 2 {
		t.Fatalf("double hide ids = %v err=%v", ids, err)
	}

	ids, err = svc.Unhide(ctx, 100)
	if err != nil || len(ids) != 1 || ids[0] != 200 {
		t.Fatalf("unhide ids = %v err=%v", ids, err)
	}

	// Unhiding an absent fixture changes nothing.
	ids, err = svc.Unhide(ctx, 999)
	if err != nil || len(ids) != 1 {
		t.Fatalf("absent unhide ids = %v err=%v", ids, err)
	}
}

func TestHiddenServiceRejectsBadID(t *testing.T) {
	t.Parallel()

	svc := NewHiddenService(docstore.NewMemoryStore())
	if _, err := svc.Hide(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Unhide(context.Background(), -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestHiddenServiceFilter(t *testing.T) {
	t.Parallel()

	svc := NewHiddenService(docstore.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.Hide(ctx, 101); err != nil {
		t.Fatalf("Hide: %v", err)
	}

	fixtures := []fixture.Fixture{{ID: 100}, {ID: 101}, {ID: 102}}
	kept, err := svc.Filter(ctx, fixtures)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(kept) != 2 || kept[0].ID != 100 || kept[1].ID != 102 {
		t.Fatalf("kept = %v", kept)
	}
}
