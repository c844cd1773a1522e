package persistence

import (
	"context"

	"github.com/N3z3d/prioris/internal/model"
)

// Strategy names reported by Name and in diagnostics.
const (
	nameLocalFirst = "localFirst"
	nameCloudFirst = "cloudFirst"
	nameHybrid     = "hybrid"
)

// Strategy is the capability set every persistence strategy implements.
// Application code never calls Operations or the Syncer directly; it asks
// the [StrategyManager] for the current Strategy and delegates.
//
// All methods are synchronous with respect to the caller: any cloud
// propagation they trigger happens on detached Syncer tasks.
type Strategy interface {
	Name() string

	GetAllLists(ctx context.Context) ([]*model.List, error)
	GetItemsByListID(ctx context.Context, listID string) ([]*model.Item, error)

	SaveList(ctx context.Context, list *model.List) error
	UpdateList(ctx context.Context, list *model.List) error
	DeleteList(ctx context.Context, id string) error

	SaveItem(ctx context.Context, item *model.Item) error
	UpdateItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id string) error
}
