package persistence

import (
	"context"

	"github.com/N3z3d/prioris/internal/auth"
	"github.com/N3z3d/prioris/internal/model"
)

// hybridStrategy switches behaviour on the authentication state at each
// call: reads follow cloudFirst while authenticated and localFirst while
// not; writes always land locally first, and the corresponding background
// sync is scheduled only while authenticated. An unauthenticated session
// therefore never observes a cloud-related error and never triggers a
// single sync call.
type hybridStrategy struct {
	ops    *Operations
	syncer *Syncer
	auth   *auth.Context
}

func (s *hybridStrategy) Name() string { return nameHybrid }

func (s *hybridStrategy) GetAllLists(ctx context.Context) ([]*model.List, error) {
	if !s.auth.IsAuthenticated() {
		return s.ops.GetAllListsLocal(ctx)
	}
	lists, err := s.ops.GetAllListsCloudFirst(ctx)
	if err != nil {
		return nil, err
	}
	s.syncer.SyncCloudToLocal(lists)
	return lists, nil
}

func (s *hybridStrategy) GetItemsByListID(ctx context.Context, listID string) ([]*model.Item, error) {
	if !s.auth.IsAuthenticated() {
		return s.ops.GetItemsByListIDLocal(ctx, listID)
	}
	items, err := s.ops.GetItemsByListIDCloudFirst(ctx, listID)
	if err != nil {
		return nil, err
	}
	s.syncer.SyncItemsCloudToLocal(items)
	return items, nil
}

func (s *hybridStrategy) SaveList(ctx context.Context, list *model.List) error {
	if err := s.ops.SaveListLocal(ctx, list); err != nil {
		return err
	}
	if s.auth.IsAuthenticated() {
		s.syncer.SyncListToCloud(list)
	}
	return nil
}

func (s *hybridStrategy) UpdateList(ctx context.Context, list *model.List) error {
	if err := s.ops.UpdateListLocal(ctx, list); err != nil {
		return err
	}
	if s.auth.IsAuthenticated() {
		s.syncer.SyncListUpdateToCloud(list)
	}
	return nil
}

func (s *hybridStrategy) DeleteList(ctx context.Context, id string) error {
	if err := s.ops.DeleteListLocal(ctx, id); err != nil {
		return err
	}
	if s.auth.IsAuthenticated() {
		s.syncer.SyncListDeletionToCloud(id)
	}
	return nil
}

func (s *hybridStrategy) SaveItem(ctx context.Context, item *model.Item) error {
	if err := s.ops.SaveItemLocal(ctx, item); err != nil {
		return err
	}
	if s.auth.IsAuthenticated() {
		s.syncer.SyncItemToCloud(item)
	}
	return nil
}

func (s *hybridStrategy) UpdateItem(ctx context.Context, item *model.Item) error {
	if err := s.ops.UpdateItemLocal(ctx, item); err != nil {
		return err
	}
	if s.auth.IsAuthenticated() {
		s.syncer.SyncItemUpdateToCloud(item)
	}
	return nil
}

func (s *hybridStrategy) DeleteItem(ctx context.Context, id string) error {
	if err := s.ops.DeleteItemLocal(ctx, id); err != nil {
		return err
	}
	if s.auth.IsAuthenticated() {
		s.syncer.SyncItemDeletionToCloud(id)
	}
	return nil
}
