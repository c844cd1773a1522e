package persistence

import (
	"context"

	"github.com/N3z3d/prioris/internal/model"
)

// cloudFirstStrategy prefers the cloud for reads, falling back to local
// transparently, and opportunistically refreshes the local copy with what
// it read. Writes land locally first — succeeding or failing
// synchronously — and are then propagated to the cloud on detached Syncer
// tasks, unconditionally. The Syncer's own gates decide whether the
// propagation actually runs.
type cloudFirstStrategy struct {
	ops    *Operations
	syncer *Syncer
}

func (s *cloudFirstStrategy) Name() string { return nameCloudFirst }

func (s *cloudFirstStrategy) GetAllLists(ctx context.Context) ([]*model.List, error) {
	lists, err := s.ops.GetAllListsCloudFirst(ctx)
	if err != nil {
		return nil, err
	}
	s.syncer.SyncCloudToLocal(lists)
	return lists, nil
}

func (s *cloudFirstStrategy) GetItemsByListID(ctx context.Context, listID string) ([]*model.Item, error) {
	items, err := s.ops.GetItemsByListIDCloudFirst(ctx, listID)
	if err != nil {
		return nil, err
	}
	s.syncer.SyncItemsCloudToLocal(items)
	return items, nil
}

func (s *cloudFirstStrategy) SaveList(ctx context.Context, list *model.List) error {
	if err := s.ops.SaveListLocal(ctx, list); err != nil {
		return err
	}
	s.syncer.SyncListToCloud(list)
	return nil
}

func (s *cloudFirstStrategy) UpdateList(ctx context.Context, list *model.List) error {
	if err := s.ops.UpdateListLocal(ctx, list); err != nil {
		return err
	}
	s.syncer.SyncListUpdateToCloud(list)
	return nil
}

func (s *cloudFirstStrategy) DeleteList(ctx context.Context, id string) error {
	if err := s.ops.DeleteListLocal(ctx, id); err != nil {
		return err
	}
	s.syncer.SyncListDeletionToCloud(id)
	return nil
}

func (s *cloudFirstStrategy) SaveItem(ctx context.Context, item *model.Item) error {
	if err := s.ops.SaveItemLocal(ctx, item); err != nil {
		return err
	}
	s.syncer.SyncItemToCloud(item)
	return nil
}

func (s *cloudFirstStrategy) UpdateItem(ctx context.Context, item *model.Item) error {
	if err := s.ops.UpdateItemLocal(ctx, item); err != nil {
		return err
	}
	s.syncer.SyncItemUpdateToCloud(item)
	return nil
}

func (s *cloudFirstStrategy) DeleteItem(ctx context.Context, id string) error {
	if err := s.ops.DeleteItemLocal(ctx, id); err != nil {
		return err
	}
	s.syncer.SyncItemDeletionToCloud(id)
	return nil
}
