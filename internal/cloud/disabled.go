package cloud

import (
	"context"
	"errors"

	"github.com/N3z3d/prioris/internal/model"
)

// ErrNotConfigured is returned by the disabled clients when no cloud backend
// is present in the configuration.
var ErrNotConfigured = errors.New("no cloud backend configured")

// DisabledListClient stands in for the cloud list repository when the config
// has no cloud block. Every call fails with ErrNotConfigured, which the
// cloud-first read path treats like any other cloud outage: it falls back to
// the local store.
type DisabledListClient struct{}

func (DisabledListClient) GetAll(context.Context) ([]*model.List, error) { return nil, ErrNotConfigured }
func (DisabledListClient) GetByID(context.Context, string) (*model.List, error) {
	return nil, ErrNotConfigured
}
func (DisabledListClient) Save(context.Context, *model.List) error   { return ErrNotConfigured }
func (DisabledListClient) Update(context.Context, *model.List) error { return ErrNotConfigured }
func (DisabledListClient) Delete(context.Context, string) error      { return ErrNotConfigured }

// DisabledItemClient is the item counterpart of DisabledListClient.
type DisabledItemClient struct{}

func (DisabledItemClient) GetAll(context.Context) ([]*model.Item, error) { return nil, ErrNotConfigured }
func (DisabledItemClient) GetByID(context.Context, string) (*model.Item, error) {
	return nil, ErrNotConfigured
}
func (DisabledItemClient) GetByListID(context.Context, string) ([]*model.Item, error) {
	return nil, ErrNotConfigured
}
func (DisabledItemClient) Save(context.Context, *model.Item) error   { return ErrNotConfigured }
func (DisabledItemClient) Update(context.Context, *model.Item) error { return ErrNotConfigured }
func (DisabledItemClient) Delete(context.Context, string) error      { return ErrNotConfigured }
