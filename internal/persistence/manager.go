package persistence

import (
	"log/slog"

	"github.com/N3z3d/prioris/internal/auth"
)

// StrategyDiagnostics is a read-only snapshot of the manager's dispatch
// state, consumable by external monitoring and the HTTP API.
type StrategyDiagnostics struct {
	CurrentMode         string         `json:"current_mode"`
	CurrentStrategy     string         `json:"current_strategy"`
	IsAuthenticated     bool           `json:"is_authenticated"`
	AvailableStrategies []string       `json:"available_strategies"`
	Sync                SyncStatistics `json:"sync"`
}

// StrategyManager dispatches to one of three interchangeable strategies
// based on the authentication context's current mode. The three strategy
// instances are constructed once per manager and reused: GetStrategy
// returns the same instance for the same mode across the manager's
// lifetime.
type StrategyManager struct {
	authCtx *auth.Context
	syncer  *Syncer
	log     *slog.Logger

	localFirst Strategy
	cloudFirst Strategy
	hybrid     Strategy
}

// NewStrategyManager creates a manager holding the three strategy
// singletons, composed from the given services. The manager owns these
// references for its lifetime but not the underlying repository adapters.
func NewStrategyManager(ops *Operations, syncer *Syncer, authCtx *auth.Context, logger *slog.Logger) *StrategyManager {
	return &StrategyManager{
		authCtx: authCtx,
		syncer:  syncer,
		log:     logger,

		localFirst: &localFirstStrategy{ops: ops},
		cloudFirst: &cloudFirstStrategy{ops: ops, syncer: syncer},
		hybrid:     &hybridStrategy{ops: ops, syncer: syncer, auth: authCtx},
	}
}

// GetStrategy returns the strategy instance for the given mode.
func (m *StrategyManager) GetStrategy(mode auth.Mode) Strategy {
	switch mode {
	case auth.ModeCloudFirst:
		return m.cloudFirst
	case auth.ModeHybrid:
		return m.hybrid
	default:
		return m.localFirst
	}
}

// CurrentStrategy returns the strategy for the context's current mode.
// The mode is re-read on every call, so an authentication transition takes
// effect on the next dispatch.
func (m *StrategyManager) CurrentStrategy() Strategy {
	return m.GetStrategy(m.authCtx.CurrentMode())
}

// Diagnostics reports the current mode, strategy, authentication state,
// available strategy names, and the Syncer's statistics snapshot.
func (m *StrategyManager) Diagnostics() StrategyDiagnostics {
	mode := m.authCtx.CurrentMode()
	return StrategyDiagnostics{
		CurrentMode:         mode.String(),
		CurrentStrategy:     m.GetStrategy(mode).Name(),
		IsAuthenticated:     m.authCtx.IsAuthenticated(),
		AvailableStrategies: []string{nameLocalFirst, nameCloudFirst, nameHybrid},
		Sync:                m.syncer.GetStatistics(),
	}
}

// Dispose clears the Syncer's tracking state. It does not cancel tasks
// already running against the cloud; call [Syncer.Drain] first when a
// clean shutdown is wanted.
func (m *StrategyManager) Dispose() {
	m.syncer.ClearTracking()
}
