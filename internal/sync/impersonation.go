package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/visao360/ledger/internal/audit"
	"github.com/visao360/ledger/internal/logger"
	"github.com/visao360/ledger/internal/model"
	"github.com/visao360/ledger/internal/remote"
	"github.com/visao360/ledger/internal/retry"
)

// SetOperator binds the engine to an authenticated operator and activates
// their ledger. When a persisted impersonation session is found in the
// local cache, the engine resumes impersonating the stored target instead,
// so a restart does not silently drop back to the operator's own data.
func (e *Engine) SetOperator(ctx context.Context, operatorID string) error {
	if operatorID == "" {
		return errors.New("operator id is empty")
	}
	e.mu.Lock()
	e.operatorID = operatorID
	e.mu.Unlock()

	active, targetID, err := e.cache.Impersonation()
	if err != nil {
		e.log.Warn().Err(err).Msg("[Sync] impersonation flags unreadable, resuming as operator")
	}
	if active && targetID != "" && targetID != operatorID {
		e.mu.Lock()
		e.impersonating = true
		e.mu.Unlock()
		e.log.Info().Str("operator_id", operatorID).Str("target_id", targetID).Msg("[Sync] resuming persisted impersonation session")
		e.activate(targetID)
		return nil
	}
	e.activate(operatorID)
	return nil
}

// Impersonate switches the effective principal to targetID. The target's
// remote snapshot is fetched first (retried); only after that bootstrap
// succeeds are the session flags persisted and the ACCESS entry recorded,
// so a half-failed attempt leaves the operator exactly where they were.
func (e *Engine) Impersonate(ctx context.Context, targetID string) error {
	e.mu.Lock()
	operatorID := e.operatorID
	e.mu.Unlock()
	if operatorID == "" {
		return errors.New("no operator bound")
	}
	if targetID == "" || targetID == operatorID {
		return fmt.Errorf("invalid impersonation target %q", targetID)
	}

	bootCfg := e.retryCfg
	bootCfg.OperationName = "impersonation bootstrap fetch"
	_, err := retry.Do(logger.WithContext(ctx, e.log), bootCfg, func(ctx context.Context) (model.GlobalState, error) {
		return e.remote.Fetch(ctx, targetID)
	})
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return fmt.Errorf("impersonation bootstrap for %s: %w", targetID, err)
	}

	if err := e.cache.SetImpersonation(true, targetID); err != nil {
		return fmt.Errorf("persisting impersonation session: %w", err)
	}

	e.record(audit.Entry{
		PrincipalID: targetID,
		OperatorID:  operatorID,
		Action:      audit.ActionAccess,
		Description: "impersonation session started",
		Timestamp:   e.clock.Now().UnixMilli(),
	})

	e.mu.Lock()
	e.impersonating = true
	e.mu.Unlock()
	e.log.Info().Str("operator_id", operatorID).Str("target_id", targetID).Msg("[Sync] impersonation started")
	e.activate(targetID)
	return nil
}

// StopImpersonating clears the persisted session and reactivates the
// operator's own ledger. A no-op when not impersonating.
func (e *Engine) StopImpersonating(ctx context.Context) error {
	e.mu.Lock()
	operatorID := e.operatorID
	impersonating := e.impersonating
	e.mu.Unlock()
	if !impersonating {
		return nil
	}
	if err := e.cache.SetImpersonation(false, ""); err != nil {
		return fmt.Errorf("clearing impersonation session: %w", err)
	}
	e.mu.Lock()
	e.impersonating = false
	e.mu.Unlock()
	e.log.Info().Str("operator_id", operatorID).Msg("[Sync] impersonation ended")
	e.activate(operatorID)
	return nil
}

// Impersonating reports whether an impersonation session is active and, if
// so, the target principal id.
func (e *Engine) Impersonating() (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.impersonating {
		return false, ""
	}
	return true, e.principal
}
