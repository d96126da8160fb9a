package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/fixture"
)

const hiddenMatchesKey = "hiddenMatches"

type hiddenMatchesDoc struct {
	FixtureIDs []int64 `json:"fixtureIds"`
}

// HiddenService manages the operator-curated list of fixtures that
// should not appear in match listings. The list is one app-config
// document shared by every replica.
type HiddenService struct {
	store docstore.Store
}

func NewHiddenService(store docstore.Store) *HiddenService {
	return &HiddenService{store: store}
}

// List returns the hidden fixture IDs, sorted ascending.
func (s *HiddenService) List(ctx context.Context) ([]int64, error) {
	var doc hiddenMatchesDoc
	if _, err := s.store.Get(ctx, docstore.KindAppConfig, hiddenMatchesKey, &doc); err != nil {
		return nil, fmt.Errorf("load hidden matches: %w", err)
	}
	sort.Slice(doc.FixtureIDs, func(i, j int) bool { return doc.FixtureIDs[i] < doc.FixtureIDs[j] })
	return doc.FixtureIDs, nil
}

// Hide adds a fixture to the hidden list. Adding an already hidden
// fixture is a no-op.
func (s *HiddenService) Hide(ctx context.Context, fixtureID int64) ([]int64, error) {
	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be positive", ErrInvalidInput)
	}

	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == fixtureID {
			return ids, nil
		}
	}
	ids = append(ids, fixtureID)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if err := s.store.Put(ctx, docstore.KindAppConfig, hiddenMatchesKey, hiddenMatchesDoc{FixtureIDs: ids}); err != nil {
		return nil, fmt.Errorf("persist hidden matches: %w", err)
	}
	return ids, nil
}

// Unhide removes a fixture from the hidden list.
func (s *HiddenService) Unhide(ctx context.Context, fixtureID int64) ([]int64, error) {
	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be positive", ErrInvalidInput)
	}

	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != fixtureID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(ids) {
		return ids, nil
	}
	if err := s.store.Put(ctx, docstore.KindAppConfig, hiddenMatchesKey, hiddenMatchesDoc{FixtureIDs: kept}); err != nil {
		return nil, fmt.Errorf("persist hidden matches: %w", err)
	}
	return kept, nil
}

// Filter drops hidden fixtures from a listing.
func (s *HiddenService) Filter(ctx context.Context, fixtures []fixture.Fixture) ([]fixture.Fixture, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return fixtures, nil
	}

	hidden := make(map[int64]bool, len(ids))
	for _, id := range ids {
		hidden[id] = true
	}
	out := make([]fixture.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if !hidden[f.ID] {
			out = append(out, f)
		}
	}
	return out, nil
}
