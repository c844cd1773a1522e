package persistence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/N3z3d/prioris/internal/model"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- Mock List Repository ----------------------------------------------------

// mockListRepo is an in-memory ListRepository with call counters and
// per-method failure injection. Safe for concurrent use so syncer tests can
// hit it from detached goroutines.
type mockListRepo struct {
	mu    sync.Mutex
	lists []*model.List

	getAllCalls  int
	getByIDCalls int
	saveCalls    int
	updateCalls  int
	deleteCalls  int

	failGetAll  error
	failGetByID error
	failSave    error
	failUpdate  error
	failDelete  error
}

func newMockListRepo(lists ...*model.List) *mockListRepo {
	m := &mockListRepo{}
	for _, l := range lists {
		cp := *l
		m.lists = append(m.lists, &cp)
	}
	return m
}

func (m *mockListRepo) GetAll(_ context.Context) ([]*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAllCalls++
	if m.failGetAll != nil {
		return nil, m.failGetAll
	}
	result := make([]*model.List, len(m.lists))
	for i, l := range m.lists {
		cp := *l
		result[i] = &cp
	}
	return result, nil
}

func (m *mockListRepo) GetByID(_ context.Context, id string) (*model.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++
	if m.failGetByID != nil {
		return nil, m.failGetByID
	}
	for _, l := range m.lists {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockListRepo) Save(_ context.Context, list *model.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.failSave != nil {
		return m.failSave
	}
	cp := *list
	m.lists = append(m.lists, &cp)
	return nil
}

func (m *mockListRepo) Update(_ context.Context, list *model.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.failUpdate != nil {
		return m.failUpdate
	}
	for i, l := range m.lists {
		if l.ID == list.ID {
			cp := *list
			m.lists[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("list %q not found", list.ID)
}

func (m *mockListRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.failDelete != nil {
		return m.failDelete
	}
	for i, l := range m.lists {
		if l.ID == id {
			m.lists = append(m.lists[:i], m.lists[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("list %q not found", id)
}

func (m *mockListRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lists)
}

func (m *mockListRepo) byID(id string) *model.List {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lists {
		if l.ID == id {
			cp := *l
			return &cp
		}
	}
	return nil
}

func (m *mockListRepo) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

// --- Mock Item Repository ----------------------------------------------------

type mockItemRepo struct {
	mu    sync.Mutex
	items []*model.Item

	getAllCalls      int
	getByIDCalls     int
	getByListIDCalls int
	saveCalls        int
	updateCalls      int
	deleteCalls      int

	failGetAll      error
	failGetByID     error
	failGetByListID error
	failSave        error
	failUpdate      error
	failDelete      error
}

func newMockItemRepo(items ...*model.Item) *mockItemRepo {
	m := &mockItemRepo{}
	for _, it := range items {
		cp := *it
		m.items = append(m.items, &cp)
	}
	return m
}

func (m *mockItemRepo) GetAll(_ context.Context) ([]*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAllCalls++
	if m.failGetAll != nil {
		return nil, m.failGetAll
	}
	result := make([]*model.Item, len(m.items))
	for i, it := range m.items {
		cp := *it
		result[i] = &cp
	}
	return result, nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++
	if m.failGetByID != nil {
		return nil, m.failGetByID
	}
	for _, it := range m.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockItemRepo) GetByListID(_ context.Context, listID string) ([]*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByListIDCalls++
	if m.failGetByListID != nil {
		return nil, m.failGetByListID
	}
	var result []*model.Item
	for _, it := range m.items {
		if it.ListID == listID {
			cp := *it
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockItemRepo) Save(_ context.Context, item *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.failSave != nil {
		return m.failSave
	}
	cp := *item
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockItemRepo) Update(_ context.Context, item *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.failUpdate != nil {
		return m.failUpdate
	}
	for i, it := range m.items {
		if it.ID == item.ID {
			cp := *item
			m.items[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("item %q not found", item.ID)
}

func (m *mockItemRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.failDelete != nil {
		return m.failDelete
	}
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %q not found", id)
}

func (m *mockItemRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *mockItemRepo) byID(id string) *model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			cp := *it
			return &cp
		}
	}
	return nil
}

func (m *mockItemRepo) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}
