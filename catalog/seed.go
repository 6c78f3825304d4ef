package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scriptshelf/scriptshelf/catalog/internal/store"
)

// SeedEntry is one script bundle for the initial catalog.
type SeedEntry struct {
	Script     *store.Script
	Tags       []string
	Highlights []string
	Version    string
	Changes    string
}

// Seed inserts the built-in seed scripts that are not already present,
// keyed by catalog key. Safe to run on every start. Returns the number of
// scripts added.
func (s *Service) Seed(ctx context.Context) (int, error) {
	return s.SeedWith(ctx, SeedScripts())
}

// SeedWith seeds an arbitrary entry set, skipping keys that already exist.
func (s *Service) SeedWith(ctx context.Context, entries []*SeedEntry) (int, error) {
	added := 0
	for _, e := range entries {
		existing, err := s.store.GetScriptByKey(ctx, e.Script.Key)
		if err != nil {
			return added, fmt.Errorf("seed lookup %s: %w", e.Script.Key, err)
		}
		if existing != nil {
			continue
		}
		sc := *e.Script // callers may reuse the entry set
		if _, err := s.store.CreateScript(ctx, &sc, e.Tags, e.Highlights, e.Version, e.Changes); err != nil {
			return added, fmt.Errorf("seed %s: %w", e.Script.Key, err)
		}
		slog.Info("seeded script", "key", e.Script.Key, "title", e.Script.Title)
		added++
	}
	if added > 0 {
		s.audit.Log(ctx, "Seeded catalog", fmt.Sprintf("%d scripts added", added))
	}
	return added, nil
}
