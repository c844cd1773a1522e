package persistence

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/N3z3d/prioris/internal/auth"
	"github.com/N3z3d/prioris/internal/config"
	"github.com/N3z3d/prioris/internal/model"
)

const (
	otelScope        = "prioris/persistence"
	spanPropagate    = "sync.propagate"
	metricSynced     = "prioris.sync.operations.completed"
	metricFailed     = "prioris.sync.operations.failed"
	metricSuppressed = "prioris.sync.operations.suppressed"

	// backoff between attempts inside one scheduled task.
	baseDelay = 500 * time.Millisecond
	maxDelay  = 5 * time.Second
)

// SyncStatistics is a read-only diagnostic snapshot of the Syncer.
type SyncStatistics struct {
	SyncingListsCount    int      `json:"syncing_lists_count"`
	SyncingItemsCount    int      `json:"syncing_items_count"`
	SyncingListIDs       []string `json:"syncing_list_ids"`
	SyncingItemIDs       []string `json:"syncing_item_ids"`
	EnableBackgroundSync bool     `json:"enable_background_sync"`
	IsAuthenticated      bool     `json:"is_authenticated"`
	ShouldEnableSync     bool     `json:"should_enable_sync"`
}

// Syncer propagates already-locally-committed writes and deletes to the
// cloud on detached goroutines. It never blocks the caller and never
// returns an error to it: failures inside a scheduled task are retried up
// to the configured budget, then logged and counted.
//
// Two in-flight registries (one per entity kind) suppress duplicate
// concurrent sync attempts for the same id; the check-and-add is a single
// atomic step, so two near-simultaneous calls for one id schedule at most
// one cloud write.
type Syncer struct {
	cfg    config.PersistenceConfig
	auth   *auth.Context
	ops    *Operations
	log    *slog.Logger
	tracer trace.Tracer

	// OTel instruments — always non-nil (no-op when telemetry is disabled).
	cntSynced     metric.Int64Counter
	cntFailed     metric.Int64Counter
	cntSuppressed metric.Int64Counter

	mu            sync.Mutex
	inFlightLists map[string]struct{}
	inFlightItems map[string]struct{}

	wg sync.WaitGroup
}

// NewSyncer creates a Syncer. The attempt budget and per-attempt timeout
// come from cfg (MaxRetries, SyncTimeout).
func NewSyncer(cfg config.PersistenceConfig, authCtx *auth.Context, ops *Operations, logger *slog.Logger) *Syncer {
	meter := otel.Meter(otelScope)

	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Syncer{
		cfg:    cfg,
		auth:   authCtx,
		ops:    ops,
		log:    logger,
		tracer: otel.Tracer(otelScope),

		cntSynced:     mustCounter(metricSynced, "Background sync operations completed"),
		cntFailed:     mustCounter(metricFailed, "Background sync operations failed after all attempts"),
		cntSuppressed: mustCounter(metricSuppressed, "Background sync operations suppressed as duplicates"),

		inFlightLists: make(map[string]struct{}),
		inFlightItems: make(map[string]struct{}),
	}
}

// entity kinds for the in-flight registries.
type syncKind int

const (
	kindList syncKind = iota
	kindItem
)

func (k syncKind) registry(s *Syncer) map[string]struct{} {
	if k == kindList {
		return s.inFlightLists
	}
	return s.inFlightItems
}

// --- Scheduling entry points -------------------------------------------------

// SyncListToCloud schedules a detached cloud save of list. Returns
// immediately; a no-op when sync is disabled, the session is
// unauthenticated, or a sync for this list id is already in flight.
func (s *Syncer) SyncListToCloud(list *model.List) {
	s.schedule(kindList, list.ID, "save list", func(ctx context.Context) error {
		return s.ops.SaveListCloud(ctx, list)
	})
}

// SyncListUpdateToCloud schedules a detached cloud update of list.
func (s *Syncer) SyncListUpdateToCloud(list *model.List) {
	s.schedule(kindList, list.ID, "update list", func(ctx context.Context) error {
		return s.ops.UpdateListCloud(ctx, list)
	})
}

// SyncListDeletionToCloud schedules a detached cloud delete of the list id.
func (s *Syncer) SyncListDeletionToCloud(id string) {
	s.schedule(kindList, id, "delete list", func(ctx context.Context) error {
		return s.ops.DeleteListCloud(ctx, id)
	})
}

// SyncItemToCloud schedules a detached cloud save of item.
func (s *Syncer) SyncItemToCloud(item *model.Item) {
	s.schedule(kindItem, item.ID, "save item", func(ctx context.Context) error {
		return s.ops.SaveItemCloud(ctx, item)
	})
}

// SyncItemUpdateToCloud schedules a detached cloud update of item.
func (s *Syncer) SyncItemUpdateToCloud(item *model.Item) {
	s.schedule(kindItem, item.ID, "update item", func(ctx context.Context) error {
		return s.ops.UpdateItemCloud(ctx, item)
	})
}

// SyncItemDeletionToCloud schedules a detached cloud delete of the item id.
func (s *Syncer) SyncItemDeletionToCloud(id string) {
	s.schedule(kindItem, id, "delete item", func(ctx context.Context) error {
		return s.ops.DeleteItemCloud(ctx, id)
	})
}

// SyncCloudToLocal schedules a best-effort refresh of the local store with
// lists read from the cloud. Used by cloud-first reads after a successful
// cloud fetch. Detached and failure-tolerant; individual list failures are
// logged and skipped.
func (s *Syncer) SyncCloudToLocal(lists []*model.List) {
	if !s.shouldSync() || len(lists) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SyncTimeout)
		defer cancel()

		for _, l := range lists {
			if err := s.ops.SaveListLocal(ctx, l); err != nil {
				s.log.Warn("local refresh of list failed", "id", l.ID, "error", err)
			}
		}
	}()
}

// SyncItemsCloudToLocal is the item-kind counterpart of SyncCloudToLocal.
func (s *Syncer) SyncItemsCloudToLocal(items []*model.Item) {
	if !s.shouldSync() || len(items) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SyncTimeout)
		defer cancel()

		for _, i := range items {
			if err := s.ops.SaveItemLocal(ctx, i); err != nil {
				s.log.Warn("local refresh of item failed", "id", i.ID, "error", err)
			}
		}
	}()
}

// --- Internals ---------------------------------------------------------------

// shouldSync gates every entry point: configuration first, then the
// current authentication state.
func (s *Syncer) shouldSync() bool {
	return s.cfg.EnableBackgroundSync && s.auth.IsAuthenticated()
}

// schedule runs the gate checks, claims the id in the registry, and spawns
// the detached task. The local write that triggered this call has already
// completed on the caller's goroutine, so the happens-before ordering with
// the cloud attempt holds.
func (s *Syncer) schedule(kind syncKind, id, op string, fn func(ctx context.Context) error) {
	if !s.shouldSync() {
		return
	}

	s.mu.Lock()
	reg := kind.registry(s)
	if _, inFlight := reg[id]; inFlight {
		s.mu.Unlock()
		s.cntSuppressed.Add(context.Background(), 1)
		s.log.Debug("duplicate sync suppressed", "op", op, "id", id)
		return
	}
	reg[id] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(kind.registry(s), id)
			s.mu.Unlock()
		}()

		ctx, span := s.tracer.Start(context.Background(), spanPropagate)
		defer span.End()
		span.SetAttributes(
			attribute.String("sync.op", op),
			attribute.String("sync.id", id),
		)

		if err := s.attempt(ctx, fn); err != nil {
			span.RecordError(err)
			s.cntFailed.Add(ctx, 1)
			s.log.Error("background sync failed", "op", op, "id", id, "error", err)
			return
		}
		s.cntSynced.Add(ctx, 1)
		s.log.Debug("background sync complete", "op", op, "id", id)
	}()
}

// attempt runs fn up to MaxRetries+1 times, each under its own
// SyncTimeout, with jittered exponential backoff in between. Returns the
// last error when the budget is exhausted.
func (s *Syncer) attempt(parent context.Context, fn func(ctx context.Context) error) error {
	attempts := s.cfg.MaxRetries + 1
	var lastErr error

	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(parent, s.cfg.SyncTimeout)
		lastErr = fn(ctx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(backoffDelay(i))
		}
	}
	return lastErr
}

// backoffDelay computes the delay for a given attempt index, applying
// exponential growth with 50-100 % jitter.
func backoffDelay(attempt int) time.Duration {
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2)) //nolint:gosec // jitter does not need crypto/rand
	return delay/2 + jitter
}

// GetStatistics returns a diagnostic snapshot of the in-flight registries
// and gate state.
func (s *Syncer) GetStatistics() SyncStatistics {
	s.mu.Lock()
	listIDs := make([]string, 0, len(s.inFlightLists))
	for id := range s.inFlightLists {
		listIDs = append(listIDs, id)
	}
	itemIDs := make([]string, 0, len(s.inFlightItems))
	for id := range s.inFlightItems {
		itemIDs = append(itemIDs, id)
	}
	s.mu.Unlock()

	authenticated := s.auth.IsAuthenticated()
	return SyncStatistics{
		SyncingListsCount:    len(listIDs),
		SyncingItemsCount:    len(itemIDs),
		SyncingListIDs:       listIDs,
		SyncingItemIDs:       itemIDs,
		EnableBackgroundSync: s.cfg.EnableBackgroundSync,
		IsAuthenticated:      authenticated,
		ShouldEnableSync:     s.cfg.EnableBackgroundSync && authenticated,
	}
}

// ClearTracking empties both in-flight registries. It only clears local
// bookkeeping; tasks already running against the cloud are not cancelled.
func (s *Syncer) ClearTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlightLists = make(map[string]struct{})
	s.inFlightItems = make(map[string]struct{})
}

// Drain blocks until every scheduled task has completed. Used on shutdown
// so locally committed writes are not abandoned mid-propagation.
func (s *Syncer) Drain() {
	s.wg.Wait()
}
