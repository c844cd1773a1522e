package persistence

import (
	"context"
	"log/slog"

	"github.com/N3z3d/prioris/internal/config"
	"github.com/N3z3d/prioris/internal/model"
)

// Operations holds the pure CRUD primitives against each backend
// individually, plus the one policy baked in at this layer: cloud-first
// reads fall back to the local store on any cloud failure, invisibly to
// the caller. No authentication or sync policy lives here.
type Operations struct {
	cfg        config.PersistenceConfig
	localLists ListRepository
	localItems ItemRepository
	cloudLists ListRepository
	cloudItems ItemRepository
	dedup      *Deduplicator
	log        *slog.Logger
}

// NewOperations creates an Operations service wired to the given
// repositories. The repositories are externally constructed and injected;
// this service does not own their lifecycle.
func NewOperations(
	cfg config.PersistenceConfig,
	localLists ListRepository,
	localItems ItemRepository,
	cloudLists ListRepository,
	cloudItems ItemRepository,
	dedup *Deduplicator,
	logger *slog.Logger,
) *Operations {
	return &Operations{
		cfg:        cfg,
		localLists: localLists,
		localItems: localItems,
		cloudLists: cloudLists,
		cloudItems: cloudItems,
		dedup:      dedup,
		log:        logger,
	}
}

// --- Cloud-first reads (transparent local fallback) --------------------------

// GetAllListsCloudFirst reads all lists from the cloud, deduplicated. On
// any cloud failure it reads the local store instead; the caller never
// sees the cloud error on this path. Each backend is called at most once.
func (o *Operations) GetAllListsCloudFirst(ctx context.Context) ([]*model.List, error) {
	lists, err := o.cloudLists.GetAll(ctx)
	if err != nil {
		o.log.Warn("cloud list read failed, falling back to local", "error", err)
		lists, err = o.localLists.GetAll(ctx)
		if err != nil {
			return nil, err
		}
	}
	return o.dedup.DeduplicateLists(lists), nil
}

// GetItemsByListIDCloudFirst reads one list's items with the same
// cloud-then-local fallback policy, deduplicated.
func (o *Operations) GetItemsByListIDCloudFirst(ctx context.Context, listID string) ([]*model.Item, error) {
	items, err := o.cloudItems.GetByListID(ctx, listID)
	if err != nil {
		o.log.Warn("cloud item read failed, falling back to local", "list_id", listID, "error", err)
		items, err = o.localItems.GetByListID(ctx, listID)
		if err != nil {
			return nil, err
		}
	}
	return o.dedup.DeduplicateItems(items), nil
}

// --- Local reads (pass-through, no fallback, no dedup) -----------------------

// GetAllListsLocal reads all lists from the local store. The local store
// is canonical and duplicate-free, so no dedup pass runs here.
func (o *Operations) GetAllListsLocal(ctx context.Context) ([]*model.List, error) {
	return o.localLists.GetAll(ctx)
}

// GetItemsByListIDLocal reads one list's items from the local store.
func (o *Operations) GetItemsByListIDLocal(ctx context.Context, listID string) ([]*model.Item, error) {
	return o.localItems.GetByListID(ctx, listID)
}

// --- Local writes (failures propagate unwrapped) -----------------------------

// SaveListLocal validates and writes a list to the local store. With
// deduplication enabled the write goes through the exists-check path so a
// same-id save becomes an update. Local failures are fatal and propagate
// unwrapped.
func (o *Operations) SaveListLocal(ctx context.Context, list *model.List) error {
	if err := list.Validate(); err != nil {
		return err
	}
	if o.cfg.EnableDeduplication {
		return o.dedup.SaveListWithDedup(ctx, list, o.localLists)
	}
	return o.localLists.Save(ctx, list)
}

// UpdateListLocal validates and updates a list in the local store.
func (o *Operations) UpdateListLocal(ctx context.Context, list *model.List) error {
	if err := list.Validate(); err != nil {
		return err
	}
	return o.localLists.Update(ctx, list)
}

// DeleteListLocal removes a list from the local store.
func (o *Operations) DeleteListLocal(ctx context.Context, id string) error {
	return o.localLists.Delete(ctx, id)
}

// SaveItemLocal validates and writes an item to the local store, through
// the dedup path when enabled.
func (o *Operations) SaveItemLocal(ctx context.Context, item *model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if o.cfg.EnableDeduplication {
		return o.dedup.SaveItemWithDedup(ctx, item, o.localItems)
	}
	return o.localItems.Save(ctx, item)
}

// UpdateItemLocal validates and updates an item in the local store.
func (o *Operations) UpdateItemLocal(ctx context.Context, item *model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return o.localItems.Update(ctx, item)
}

// DeleteItemLocal removes an item from the local store.
func (o *Operations) DeleteItemLocal(ctx context.Context, id string) error {
	return o.localItems.Delete(ctx, id)
}

// --- Cloud writes (failures wrapped in *OpError, never swallowed) ------------

// SaveListCloud writes a list to the cloud backend only. Any failure is
// wrapped in an *OpError carrying the operation, the target id, and the
// cause, and returned to the caller.
func (o *Operations) SaveListCloud(ctx context.Context, list *model.List) error {
	if err := list.Validate(); err != nil {
		return err
	}
	if err := o.cloudLists.Save(ctx, list); err != nil {
		return &OpError{Op: "save list", ID: list.ID, Err: err}
	}
	return nil
}

// UpdateListCloud updates a list in the cloud backend only.
func (o *Operations) UpdateListCloud(ctx context.Context, list *model.List) error {
	if err := list.Validate(); err != nil {
		return err
	}
	if err := o.cloudLists.Update(ctx, list); err != nil {
		return &OpError{Op: "update list", ID: list.ID, Err: err}
	}
	return nil
}

// DeleteListCloud removes a list from the cloud backend only.
func (o *Operations) DeleteListCloud(ctx context.Context, id string) error {
	if err := o.cloudLists.Delete(ctx, id); err != nil {
		return &OpError{Op: "delete list", ID: id, Err: err}
	}
	return nil
}

// SaveItemCloud writes an item to the cloud backend only.
func (o *Operations) SaveItemCloud(ctx context.Context, item *model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := o.cloudItems.Save(ctx, item); err != nil {
		return &OpError{Op: "save item", ID: item.ID, Err: err}
	}
	return nil
}

// UpdateItemCloud updates an item in the cloud backend only.
func (o *Operations) UpdateItemCloud(ctx context.Context, item *model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := o.cloudItems.Update(ctx, item); err != nil {
		return &OpError{Op: "update item", ID: item.ID, Err: err}
	}
	return nil
}

// DeleteItemCloud removes an item from the cloud backend only.
func (o *Operations) DeleteItemCloud(ctx context.Context, id string) error {
	if err := o.cloudItems.Delete(ctx, id); err != nil {
		return &OpError{Op: "delete item", ID: id, Err: err}
	}
	return nil
}
