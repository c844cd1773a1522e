package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N3z3d/prioris/internal/model"
)

// Deduplicator suppresses duplicate writes and collapses duplicate
// entities in read results, keyed by identity. It sits on the write path
// and on every cloud-first read path, so duplicate propagation across the
// local and cloud copies never reaches consumers.
type Deduplicator struct {
	log *slog.Logger
}

// NewDeduplicator creates a Deduplicator.
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	return &Deduplicator{log: logger}
}

// DeduplicateLists returns lists with duplicate ids removed, keeping the
// first occurrence of each id in its original position. Idempotent.
func (d *Deduplicator) DeduplicateLists(lists []*model.List) []*model.List {
	seen := make(map[string]struct{}, len(lists))
	result := make([]*model.List, 0, len(lists))
	for _, l := range lists {
		if _, dup := seen[l.ID]; dup {
			d.log.Debug("duplicate list collapsed", "id", l.ID, "name", l.Name)
			continue
		}
		seen[l.ID] = struct{}{}
		result = append(result, l)
	}
	return result
}

// DeduplicateItems is the item-kind counterpart of DeduplicateLists.
func (d *Deduplicator) DeduplicateItems(items []*model.Item) []*model.Item {
	seen := make(map[string]struct{}, len(items))
	result := make([]*model.Item, 0, len(items))
	for _, i := range items {
		if _, dup := seen[i.ID]; dup {
			d.log.Debug("duplicate item collapsed", "id", i.ID, "title", i.Title)
			continue
		}
		seen[i.ID] = struct{}{}
		result = append(result, i)
	}
	return result
}

// SaveListWithDedup writes list to repo, treating an existing entity with
// the same id as an update rather than a duplicate insert. A legitimate
// update is never dropped: "exists with same id" means update, "new id"
// means insert.
func (d *Deduplicator) SaveListWithDedup(ctx context.Context, list *model.List, repo ListRepository) error {
	existing, err := repo.GetByID(ctx, list.ID)
	if err != nil {
		return fmt.Errorf("checking for existing list %q: %w", list.ID, err)
	}
	if existing != nil {
		d.log.Debug("list already present, saving as update", "id", list.ID)
		return repo.Update(ctx, list)
	}
	return repo.Save(ctx, list)
}

// SaveItemWithDedup is the item-kind counterpart of SaveListWithDedup.
func (d *Deduplicator) SaveItemWithDedup(ctx context.Context, item *model.Item, repo ItemRepository) error {
	existing, err := repo.GetByID(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("checking for existing item %q: %w", item.ID, err)
	}
	if existing != nil {
		d.log.Debug("item already present, saving as update", "id", item.ID)
		return repo.Update(ctx, item)
	}
	return repo.Save(ctx, item)
}
