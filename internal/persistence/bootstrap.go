package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N3z3d/prioris/internal/auth"
)

// Bootstrap seeds an empty local store from the cloud on first run, so an
// authenticated user starting on a fresh install sees their data before
// the first cloud-first read. Skipped when the local store already holds
// lists or when the session is unauthenticated.
type Bootstrap struct {
	ops  *Operations
	auth *auth.Context
	log  *slog.Logger
}

// NewBootstrap creates a Bootstrap wired to the operations service.
func NewBootstrap(ops *Operations, authCtx *auth.Context, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{ops: ops, auth: authCtx, log: logger}
}

// Run checks whether seeding applies and, if so, copies cloud lists and
// their items into the local store. Returns the number of lists seeded.
// Individual item failures are logged and skipped to maximise progress.
func (b *Bootstrap) Run(ctx context.Context) (int, error) {
	if !b.auth.IsAuthenticated() {
		b.log.Debug("unauthenticated session, skipping bootstrap")
		return 0, nil
	}

	existing, err := b.ops.GetAllListsLocal(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking local store: %w", err)
	}
	if len(existing) > 0 {
		b.log.Debug("local store is not empty, skipping bootstrap", "lists", len(existing))
		return 0, nil
	}

	b.log.Info("empty local store detected, seeding from cloud")

	// Falls back to local on cloud failure; local is empty here, so a
	// cloud outage simply seeds nothing.
	lists, err := b.ops.GetAllListsCloudFirst(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading cloud lists: %w", err)
	}

	seeded := 0
	for _, l := range lists {
		if err := b.ops.SaveListLocal(ctx, l); err != nil {
			b.log.Error("seeding list failed", "id", l.ID, "error", err)
			continue
		}
		seeded++

		items, err := b.ops.GetItemsByListIDCloudFirst(ctx, l.ID)
		if err != nil {
			b.log.Error("reading cloud items failed", "list_id", l.ID, "error", err)
			continue
		}
		for _, it := range items {
			if err := b.ops.SaveItemLocal(ctx, it); err != nil {
				b.log.Error("seeding item failed", "id", it.ID, "error", err)
			}
		}
	}

	b.log.Info("bootstrap complete", "lists", seeded)
	return seeded, nil
}
