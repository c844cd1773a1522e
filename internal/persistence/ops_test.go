package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/N3z3d/prioris/internal/config"
	"github.com/N3z3d/prioris/internal/model"
)

type opsFixture struct {
	ops        *Operations
	localLists *mockListRepo
	localItems *mockItemRepo
	cloudLists *mockListRepo
	cloudItems *mockItemRepo
}

func newOpsFixture(cfg config.PersistenceConfig) *opsFixture {
	f := &opsFixture{
		localLists: newMockListRepo(),
		localItems: newMockItemRepo(),
		cloudLists: newMockListRepo(),
		cloudItems: newMockItemRepo(),
	}
	dedup := NewDeduplicator(testLogger)
	f.ops = NewOperations(cfg, f.localLists, f.localItems, f.cloudLists, f.cloudItems, dedup, testLogger)
	return f
}

// ---------------------------------------------------------------------------
// Cloud-first reads
// ---------------------------------------------------------------------------

func TestGetAllListsCloudFirst_CloudSucceeds(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	f.cloudLists.lists = []*model.List{newTestList("a", "Groceries"), newTestList("b", "Work")}
	f.localLists.lists = []*model.List{newTestList("stale", "Old")}

	lists, err := f.ops.GetAllListsCloudFirst(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lists) != 2 {
		t.Fatalf("lists = %d, want 2", len(lists))
	}
	// Local must not be consulted when the cloud answers.
	if f.localLists.getAllCalls != 0 {
		t.Errorf("local GetAll calls = %d, want 0", f.localLists.getAllCalls)
	}
}

func TestGetAllListsCloudFirst_CloudFailureFallsBackToLocal(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	f.cloudLists.failGetAll = errors.New("connection refused")
	f.localLists.lists = []*model.List{newTestList("a", "Groceries")}

	lists, err := f.ops.GetAllListsCloudFirst(context.Background())
	if err != nil {
		t.Fatalf("caller must not see the cloud error, got: %v", err)
	}

	if len(lists) != 1 || lists[0].ID != "a" {
		t.Fatalf("lists = %v, want the local list", lists)
	}
	// Each backend called exactly once.
	if f.cloudLists.getAllCalls != 1 {
		t.Errorf("cloud GetAll calls = %d, want 1", f.cloudLists.getAllCalls)
	}
	if f.localLists.getAllCalls != 1 {
		t.Errorf("local GetAll calls = %d, want 1", f.localLists.getAllCalls)
	}
}

func TestGetAllListsCloudFirst_BothBackendsFail(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	f.cloudLists.failGetAll = errors.New("connection refused")
	localErr := errors.New("disk I/O error")
	f.localLists.failGetAll = localErr

	_, err := f.ops.GetAllListsCloudFirst(context.Background())
	if !errors.Is(err, localErr) {
		t.Fatalf("error = %v, want the local error", err)
	}
}

func TestGetAllListsCloudFirst_DeduplicatesResult(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	f.cloudLists.lists = []*model.List{
		newTestList("a", "Groceries"),
		newTestList("a", "Groceries"),
		newTestList("b", "Work"),
	}

	lists, err := f.ops.GetAllListsCloudFirst(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 2 {
		t.Errorf("lists = %d, want 2 after dedup", len(lists))
	}
}

func TestGetItemsByListIDCloudFirst_CloudFailureFallsBackToLocal(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	f.cloudItems.failGetByListID = errors.New("timeout")
	f.localItems.items = []*model.Item{newTestItem("i1", "Buy milk", "a")}

	items, err := f.ops.GetItemsByListIDCloudFirst(context.Background(), "a")
	if err != nil {
		t.Fatalf("caller must not see the cloud error, got: %v", err)
	}
	if len(items) != 1 || items[0].ID != "i1" {
		t.Fatalf("items = %v, want the local item", items)
	}
}

// ---------------------------------------------------------------------------
// Local writes
// ---------------------------------------------------------------------------

func TestSaveListLocal_DedupEnabledRoutesThroughExistsCheck(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{EnableDeduplication: true})
	f.localLists.lists = []*model.List{newTestList("a", "Groceries")}

	if err := f.ops.SaveListLocal(context.Background(), newTestList("a", "Groceries")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.localLists.getByIDCalls != 1 {
		t.Errorf("GetByID calls = %d, want 1 (exists check)", f.localLists.getByIDCalls)
	}
	if f.localLists.updateCalls != 1 || f.localLists.saveCalls != 0 {
		t.Errorf("save=%d update=%d, want 0/1", f.localLists.saveCalls, f.localLists.updateCalls)
	}
	if f.localLists.count() != 1 {
		t.Errorf("repo count = %d, want 1 (no duplicate row)", f.localLists.count())
	}
}

func TestSaveListLocal_DedupDisabledWritesDirectly(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{EnableDeduplication: false})

	if err := f.ops.SaveListLocal(context.Background(), newTestList("a", "Groceries")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.localLists.getByIDCalls != 0 {
		t.Errorf("GetByID calls = %d, want 0 (no exists check)", f.localLists.getByIDCalls)
	}
	if f.localLists.saveCalls != 1 {
		t.Errorf("Save calls = %d, want 1", f.localLists.saveCalls)
	}
}

func TestSaveListLocal_InvalidListRejected(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})

	blank := newTestList("a", "   ")
	err := f.ops.SaveListLocal(context.Background(), blank)

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	if f.localLists.saveCalls != 0 {
		t.Errorf("Save calls = %d, want 0 for invalid list", f.localLists.saveCalls)
	}
}

func TestSaveListLocal_FailurePropagatesUnwrapped(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	storeErr := errors.New("database is locked")
	f.localLists.failSave = storeErr

	err := f.ops.SaveListLocal(context.Background(), newTestList("a", "Groceries"))
	if !errors.Is(err, storeErr) {
		t.Fatalf("error = %v, want the store error", err)
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		t.Errorf("local failure wrapped in *OpError: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Cloud writes
// ---------------------------------------------------------------------------

func TestSaveListCloud_FailureWrappedInOpError(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	cause := errors.New("503 service unavailable")
	f.cloudLists.failSave = cause

	err := f.ops.SaveListCloud(context.Background(), newTestList("a", "Groceries"))

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want *OpError", err)
	}
	if opErr.Op != "save list" {
		t.Errorf("Op = %q, want %q", opErr.Op, "save list")
	}
	if opErr.ID != "a" {
		t.Errorf("ID = %q, want %q", opErr.ID, "a")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Unwrap chain does not reach the cause: %v", err)
	}
}

func TestDeleteItemCloud_SuccessNoError(t *testing.T) {
	f := newOpsFixture(config.PersistenceConfig{})
	f.cloudItems.items = []*model.Item{newTestItem("i1", "Buy milk", "a")}

	if err := f.ops.DeleteItemCloud(context.Background(), "i1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cloudItems.count() != 0 {
		t.Errorf("cloud items = %d, want 0", f.cloudItems.count())
	}
}
