// Package persistence implements the authentication-driven strategy engine:
// backend-agnostic CRUD operations, identity-keyed deduplication, detached
// background propagation of local writes to the cloud, and the three
// interchangeable persistence strategies dispatched by [StrategyManager].
//
// The package contains four main components:
//
//   - [Operations] holds the pure CRUD primitives against each backend.
//   - [Syncer] schedules fire-and-forget cloud propagation.
//   - [StrategyManager] selects the active [Strategy] from the current mode.
//   - [Bootstrap] seeds an empty local store from the cloud on first run.
package persistence

import (
	"context"

	"github.com/N3z3d/prioris/internal/model"
)

// ListRepository provides storage access for lists. Implemented by the
// local store ([local.ListStore]) and the cloud adapter ([cloud.Adapter]).
// GetByID returns (nil, nil) when no list with that id exists.
type ListRepository interface {
	GetAll(ctx context.Context) ([]*model.List, error)
	GetByID(ctx context.Context, id string) (*model.List, error)
	Save(ctx context.Context, list *model.List) error
	Update(ctx context.Context, list *model.List) error
	Delete(ctx context.Context, id string) error
}

// ItemRepository provides storage access for items, with a list-scoped
// query in addition to the flat one. GetByID returns (nil, nil) when no
// item with that id exists.
type ItemRepository interface {
	GetAll(ctx context.Context) ([]*model.Item, error)
	GetByID(ctx context.Context, id string) (*model.Item, error)
	GetByListID(ctx context.Context, listID string) ([]*model.Item, error)
	Save(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id string) error
}
