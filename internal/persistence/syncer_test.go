package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/N3z3d/prioris/internal/auth"
	"github.com/N3z3d/prioris/internal/config"
	"github.com/N3z3d/prioris/internal/model"
)

func syncConfig() config.PersistenceConfig {
	return config.PersistenceConfig{
		EnableBackgroundSync: true,
		SyncTimeout:          time.Second,
		MaxRetries:           0,
	}
}

func authenticatedCtx(t *testing.T) *auth.Context {
	t.Helper()
	authCtx := auth.NewContext(testLogger)
	authCtx.Initialize(true)
	t.Cleanup(authCtx.Dispose)
	return authCtx
}

func newSyncFixture(t *testing.T, cfg config.PersistenceConfig, authCtx *auth.Context) (*Syncer, *opsFixture) {
	t.Helper()
	f := newOpsFixture(cfg)
	return NewSyncer(cfg, authCtx, f.ops, testLogger), f
}

// blockingListRepo holds every Save until release is closed, so tests can
// keep a sync task in flight deterministically.
type blockingListRepo struct {
	*mockListRepo
	release chan struct{}
	started chan struct{} // receives one signal per Save entered
}

func newBlockingListRepo() *blockingListRepo {
	return &blockingListRepo{
		mockListRepo: newMockListRepo(),
		release:      make(chan struct{}),
		started:      make(chan struct{}, 8),
	}
}

func (b *blockingListRepo) Save(ctx context.Context, list *model.List) error {
	b.started <- struct{}{}
	<-b.release
	return b.mockListRepo.Save(ctx, list)
}

// flakyListRepo fails the first failures Save calls, then succeeds.
type flakyListRepo struct {
	*mockListRepo
	mu       sync.Mutex
	failures int
}

func (f *flakyListRepo) Save(ctx context.Context, list *model.List) error {
	f.mu.Lock()
	shouldFail := f.failures > 0
	if shouldFail {
		f.failures--
	}
	f.mu.Unlock()
	if shouldFail {
		return errors.New("transient cloud error")
	}
	return f.mockListRepo.Save(ctx, list)
}

// ---------------------------------------------------------------------------
// Gate checks
// ---------------------------------------------------------------------------

func TestSyncListToCloud_DisabledSyncIsNoOp(t *testing.T) {
	cfg := syncConfig()
	cfg.EnableBackgroundSync = false
	s, f := newSyncFixture(t, cfg, authenticatedCtx(t))

	s.SyncListToCloud(newTestList("a", "Groceries"))
	s.Drain()

	if f.cloudLists.saves() != 0 {
		t.Errorf("cloud Save calls = %d, want 0 when sync is disabled", f.cloudLists.saves())
	}
}

func TestSyncListToCloud_UnauthenticatedIsNoOp(t *testing.T) {
	authCtx := auth.NewContext(testLogger)
	authCtx.Initialize(false)
	t.Cleanup(authCtx.Dispose)

	s, f := newSyncFixture(t, syncConfig(), authCtx)

	s.SyncListToCloud(newTestList("a", "Groceries"))
	s.Drain()

	if f.cloudLists.saves() != 0 {
		t.Errorf("cloud Save calls = %d, want 0 when unauthenticated", f.cloudLists.saves())
	}
}

// ---------------------------------------------------------------------------
// Duplicate suppression
// ---------------------------------------------------------------------------

func TestSyncListToCloud_DuplicateSuppressedWhileInFlight(t *testing.T) {
	cfg := syncConfig()
	authCtx := authenticatedCtx(t)

	f := newOpsFixture(cfg)
	blocking := newBlockingListRepo()
	f.ops = NewOperations(cfg, f.localLists, f.localItems, blocking, f.cloudItems, NewDeduplicator(testLogger), testLogger)
	s := NewSyncer(cfg, authCtx, f.ops, testLogger)

	list := newTestList("a", "Groceries")

	s.SyncListToCloud(list)
	<-blocking.started // first task is now inside the cloud Save

	// Same id again while the first is in flight: must be dropped, not queued.
	s.SyncListToCloud(list)

	stats := s.GetStatistics()
	if stats.SyncingListsCount != 1 {
		t.Errorf("SyncingListsCount = %d, want 1", stats.SyncingListsCount)
	}
	if len(stats.SyncingListIDs) != 1 || stats.SyncingListIDs[0] != "a" {
		t.Errorf("SyncingListIDs = %v, want [a]", stats.SyncingListIDs)
	}

	close(blocking.release)
	s.Drain()

	if got := blocking.saves(); got != 1 {
		t.Errorf("cloud Save calls = %d, want exactly 1", got)
	}

	// Registry must be empty once the task completes.
	if stats := s.GetStatistics(); stats.SyncingListsCount != 0 {
		t.Errorf("SyncingListsCount after drain = %d, want 0", stats.SyncingListsCount)
	}
}

func TestSyncListToCloud_DistinctIDsRunIndependently(t *testing.T) {
	s, f := newSyncFixture(t, syncConfig(), authenticatedCtx(t))

	s.SyncListToCloud(newTestList("a", "Groceries"))
	s.SyncListToCloud(newTestList("b", "Work"))
	s.Drain()

	if got := f.cloudLists.saves(); got != 2 {
		t.Errorf("cloud Save calls = %d, want 2", got)
	}
}

func TestSyncListToCloud_SameIDAgainAfterCompletion(t *testing.T) {
	s, f := newSyncFixture(t, syncConfig(), authenticatedCtx(t))
	list := newTestList("a", "Groceries")

	s.SyncListToCloud(list)
	s.Drain()
	s.SyncListToCloud(list)
	s.Drain()

	if got := f.cloudLists.saves(); got != 2 {
		t.Errorf("cloud Save calls = %d, want 2 (id released between tasks)", got)
	}
}

// ---------------------------------------------------------------------------
// Retries
// ---------------------------------------------------------------------------

func TestSync_RetriesThenSucceeds(t *testing.T) {
	cfg := syncConfig()
	cfg.MaxRetries = 2
	authCtx := authenticatedCtx(t)

	f := newOpsFixture(cfg)
	flaky := &flakyListRepo{mockListRepo: newMockListRepo(), failures: 1}
	f.ops = NewOperations(cfg, f.localLists, f.localItems, flaky, f.cloudItems, NewDeduplicator(testLogger), testLogger)
	s := NewSyncer(cfg, authCtx, f.ops, testLogger)

	s.SyncListToCloud(newTestList("a", "Groceries"))
	s.Drain()

	// First attempt fails, second lands the write.
	if got := flaky.saves(); got != 2 {
		t.Errorf("cloud Save calls = %d, want 2", got)
	}
	if flaky.count() != 1 {
		t.Errorf("cloud lists = %d, want 1", flaky.count())
	}
}

func TestSync_ExhaustedBudgetNeverReachesCaller(t *testing.T) {
	cfg := syncConfig()
	cfg.MaxRetries = 1
	s, f := newSyncFixture(t, cfg, authenticatedCtx(t))
	f.cloudLists.failSave = errors.New("503 service unavailable")

	// Must not panic or propagate; the failure is terminal inside the task.
	s.SyncListToCloud(newTestList("a", "Groceries"))
	s.Drain()

	if got := f.cloudLists.saves(); got != 2 {
		t.Errorf("cloud Save calls = %d, want 2 (initial + 1 retry)", got)
	}
}

// ---------------------------------------------------------------------------
// Cloud→local refresh and bookkeeping
// ---------------------------------------------------------------------------

func TestSyncCloudToLocal_WritesThroughLocalPath(t *testing.T) {
	cfg := syncConfig()
	cfg.EnableDeduplication = true
	s, f := newSyncFixture(t, cfg, authenticatedCtx(t))

	s.SyncCloudToLocal([]*model.List{newTestList("a", "Groceries"), newTestList("b", "Work")})
	s.Drain()

	if f.localLists.count() != 2 {
		t.Errorf("local lists = %d, want 2", f.localLists.count())
	}
}

func TestSyncCloudToLocal_GatedWhenDisabled(t *testing.T) {
	cfg := syncConfig()
	cfg.EnableBackgroundSync = false
	s, f := newSyncFixture(t, cfg, authenticatedCtx(t))

	s.SyncCloudToLocal([]*model.List{newTestList("a", "Groceries")})
	s.Drain()

	if f.localLists.count() != 0 {
		t.Errorf("local lists = %d, want 0", f.localLists.count())
	}
}

func TestClearTracking_ReleasesInFlightIDs(t *testing.T) {
	cfg := syncConfig()
	authCtx := authenticatedCtx(t)

	f := newOpsFixture(cfg)
	blocking := newBlockingListRepo()
	f.ops = NewOperations(cfg, f.localLists, f.localItems, blocking, f.cloudItems, NewDeduplicator(testLogger), testLogger)
	s := NewSyncer(cfg, authCtx, f.ops, testLogger)

	list := newTestList("a", "Groceries")
	s.SyncListToCloud(list)
	<-blocking.started

	s.ClearTracking()

	// The id is free again even though the first task still runs.
	s.SyncListToCloud(list)
	<-blocking.started

	close(blocking.release)
	s.Drain()

	if got := blocking.saves(); got != 2 {
		t.Errorf("cloud Save calls = %d, want 2 after ClearTracking", got)
	}
}

func TestGetStatistics_ReflectsGateState(t *testing.T) {
	cfg := syncConfig()
	authCtx := auth.NewContext(testLogger)
	authCtx.Initialize(false)
	t.Cleanup(authCtx.Dispose)

	s, _ := newSyncFixture(t, cfg, authCtx)

	stats := s.GetStatistics()
	if !stats.EnableBackgroundSync {
		t.Error("EnableBackgroundSync = false, want true")
	}
	if stats.IsAuthenticated {
		t.Error("IsAuthenticated = true, want false")
	}
	if stats.ShouldEnableSync {
		t.Error("ShouldEnableSync = true, want false while unauthenticated")
	}

	authCtx.UpdateAuthenticationState(true)
	if stats := s.GetStatistics(); !stats.ShouldEnableSync {
		t.Error("ShouldEnableSync = false, want true once authenticated")
	}
}
