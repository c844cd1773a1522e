package persistence

import (
	"context"
	"testing"

	"github.com/N3z3d/prioris/internal/model"
)

func newTestList(id, name string) *model.List {
	l := model.NewList(name, model.TypeCustom)
	l.ID = id
	return l
}

func newTestItem(id, title, listID string) *model.Item {
	it := model.NewItem(title, listID)
	it.ID = id
	return it
}

func TestDeduplicateLists_RemovesDuplicatesKeepsOrder(t *testing.T) {
	d := NewDeduplicator(testLogger)

	a := newTestList("a", "Groceries")
	b := newTestList("b", "Work")
	aDup := newTestList("a", "Groceries (copy)")
	c := newTestList("c", "Travel")

	got := d.DeduplicateLists([]*model.List{a, b, aDup, c, b})

	if len(got) != 3 {
		t.Fatalf("deduplicated length = %d, want 3", len(got))
	}
	wantOrder := []string{"a", "b", "c"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
	// First occurrence wins, not the later copy.
	if got[0].Name != "Groceries" {
		t.Errorf("got[0].Name = %q, want %q", got[0].Name, "Groceries")
	}
}

func TestDeduplicateLists_Idempotent(t *testing.T) {
	d := NewDeduplicator(testLogger)

	lists := []*model.List{
		newTestList("a", "Groceries"),
		newTestList("a", "Groceries"),
		newTestList("b", "Work"),
	}

	once := d.DeduplicateLists(lists)
	twice := d.DeduplicateLists(once)

	if len(twice) != len(once) {
		t.Fatalf("second pass changed length: %d → %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("second pass reordered index %d: %q → %q", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestDeduplicateLists_EmptyInput(t *testing.T) {
	d := NewDeduplicator(testLogger)

	if got := d.DeduplicateLists(nil); len(got) != 0 {
		t.Errorf("deduplicated nil = %d entries, want 0", len(got))
	}
}

func TestDeduplicateItems_RemovesDuplicatesKeepsOrder(t *testing.T) {
	d := NewDeduplicator(testLogger)

	got := d.DeduplicateItems([]*model.Item{
		newTestItem("i1", "Buy milk", "a"),
		newTestItem("i2", "Buy eggs", "a"),
		newTestItem("i1", "Buy milk", "a"),
	})

	if len(got) != 2 {
		t.Fatalf("deduplicated length = %d, want 2", len(got))
	}
	if got[0].ID != "i1" || got[1].ID != "i2" {
		t.Errorf("order = [%q, %q], want [i1, i2]", got[0].ID, got[1].ID)
	}
}

func TestSaveListWithDedup_NewListInserted(t *testing.T) {
	d := NewDeduplicator(testLogger)
	repo := newMockListRepo()

	if err := d.SaveListWithDedup(context.Background(), newTestList("a", "Groceries"), repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.saveCalls != 1 {
		t.Errorf("Save calls = %d, want 1", repo.saveCalls)
	}
	if repo.updateCalls != 0 {
		t.Errorf("Update calls = %d, want 0", repo.updateCalls)
	}
}

func TestSaveListWithDedup_ExistingIDBecomesUpdate(t *testing.T) {
	d := NewDeduplicator(testLogger)
	repo := newMockListRepo(newTestList("a", "Groceries"))

	renamed := newTestList("a", "Groceries & Household")
	if err := d.SaveListWithDedup(context.Background(), renamed, repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.saveCalls != 0 {
		t.Errorf("Save calls = %d, want 0", repo.saveCalls)
	}
	if repo.updateCalls != 1 {
		t.Errorf("Update calls = %d, want 1", repo.updateCalls)
	}
	// The update must not be silently dropped.
	if got := repo.byID("a"); got == nil || got.Name != "Groceries & Household" {
		t.Errorf("list after dedup save = %+v, want updated name", got)
	}
	if repo.count() != 1 {
		t.Errorf("repo count = %d, want 1", repo.count())
	}
}

func TestSaveItemWithDedup_ExistsCheckFailurePropagates(t *testing.T) {
	d := NewDeduplicator(testLogger)
	repo := newMockItemRepo()
	repo.failGetByID = context.DeadlineExceeded

	err := d.SaveItemWithDedup(context.Background(), newTestItem("i1", "Buy milk", "a"), repo)
	if err == nil {
		t.Fatal("expected error when exists-check fails")
	}
	if repo.saveCalls != 0 || repo.updateCalls != 0 {
		t.Errorf("writes after failed exists-check: save=%d update=%d, want 0/0",
			repo.saveCalls, repo.updateCalls)
	}
}
