package persistence

import (
	"context"

	"github.com/N3z3d/prioris/internal/model"
)

// localFirstStrategy reads and writes the local store exclusively. It
// never touches the cloud backend and never schedules background sync,
// regardless of the current authentication state.
type localFirstStrategy struct {
	ops *Operations
}

func (s *localFirstStrategy) Name() string { return nameLocalFirst }

func (s *localFirstStrategy) GetAllLists(ctx context.Context) ([]*model.List, error) {
	return s.ops.GetAllListsLocal(ctx)
}

func (s *localFirstStrategy) GetItemsByListID(ctx context.Context, listID string) ([]*model.Item, error) {
	return s.ops.GetItemsByListIDLocal(ctx, listID)
}

func (s *localFirstStrategy) SaveList(ctx context.Context, list *model.List) error {
	return s.ops.SaveListLocal(ctx, list)
}

func (s *localFirstStrategy) UpdateList(ctx context.Context, list *model.List) error {
	return s.ops.UpdateListLocal(ctx, list)
}

func (s *localFirstStrategy) DeleteList(ctx context.Context, id string) error {
	return s.ops.DeleteListLocal(ctx, id)
}

func (s *localFirstStrategy) SaveItem(ctx context.Context, item *model.Item) error {
	return s.ops.SaveItemLocal(ctx, item)
}

func (s *localFirstStrategy) UpdateItem(ctx context.Context, item *model.Item) error {
	return s.ops.UpdateItemLocal(ctx, item)
}

func (s *localFirstStrategy) DeleteItem(ctx context.Context, id string) error {
	return s.ops.DeleteItemLocal(ctx, id)
}
