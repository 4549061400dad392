package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/events"
	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/oneclick"
)

// Reconciliation is the outcome of aligning one invoice with the provider.
type Reconciliation struct {
	Invoice *models.Invoice
	// AmountIn is the provider's formatted input amount, when it reported one.
	AmountIn *string
	// ProviderStatus is the raw execution code, empty when not consulted.
	ProviderStatus string
	// Stale is set when the provider could not be reached and Invoice is the
	// last stored state.
	Stale   bool
	Changed bool
}

type Reconciler struct {
	store    InvoiceStore
	provider SwapProvider
	notify   notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewReconciler(store InvoiceStore, provider SwapProvider, audit AuditLogger, publisher events.Publisher, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		provider: provider,
		notify:   notifier{audit: audit, publisher: publisher, log: log},
		log:      log,
		now:      time.Now,
	}
}

// Reconcile refreshes the stored status of id from the provider. Provider
// failures never surface: the stored record is returned with Stale set.
// Losing the guarded write to a concurrent writer is not an error either;
// the fresh record is returned instead.
func (r *Reconciler) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	inv, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.reconcile(ctx, inv, models.ActorSystem)
}

// ReconcileBatch reconciles up to limit refreshable invoices and returns how
// many changed status.
func (r *Reconciler) ReconcileBatch(ctx context.Context, limit int) (int, error) {
	invoices, err := r.store.ListRefreshable(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list refreshable invoices: %w", err)
	}

	changed := 0
	for i := range invoices {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		rec, err := r.reconcile(ctx, &invoices[i], models.ActorWorker)
		if err != nil {
			r.log.Error("reconcile failed", zap.String("invoice_id", invoices[i].ID.String()), zap.Error(err))
			continue
		}
		if rec.Changed {
			changed++
		}
	}
	return changed, nil
}

// SweepExpired closes AWAITING_DEPOSIT invoices whose deadline passed more
// than grace ago and for which the provider still reports no deposit. Any
// other provider answer is reconciled normally.
func (r *Reconciler) SweepExpired(ctx context.Context, grace time.Duration, limit int) (int, error) {
	cutoff := r.now().Add(-grace)
	invoices, err := r.store.ListExpirable(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list expirable invoices: %w", err)
	}

	expired := 0
	for i := range invoices {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		inv := &invoices[i]
		if !inv.HasDeposit() {
			continue
		}

		st, err := r.provider.ExecutionStatus(ctx, *inv.DepositAddress, inv.DepositMemo)
		if err != nil {
			r.log.Warn("expiry check skipped, provider unavailable",
				zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			continue
		}

		if st.Status != oneclick.StatusPendingDeposit {
			if _, err := r.apply(ctx, inv, st, models.ActorWorker); err != nil {
				r.log.Error("reconcile during expiry sweep failed", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			}
			continue
		}

		ok, err := r.store.TransitionStatus(ctx, inv.ID, models.InvoiceStatusAwaitingDeposit, models.InvoiceStatusExpired, r.now())
		if err != nil {
			r.log.Error("expire invoice failed", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		expired++
		r.notify.statusChanged(ctx, statusChange{
			invoiceID: inv.ID,
			from:      models.InvoiceStatusAwaitingDeposit,
			to:        models.InvoiceStatusExpired,
			actorType: models.ActorWorker,
			action:    models.AuditInvoiceExpired,
			meta:      map[string]any{"provider_status": st.Status, "expires_at": inv.ExpiresAt},
		})
	}
	return expired, nil
}

func (r *Reconciler) load(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := r.store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", id, err)
	}
	return inv, nil
}

func (r *Reconciler) reconcile(ctx context.Context, inv *models.Invoice, actor string) (*Reconciliation, error) {
	if !inv.Status.IsRefreshable() || !inv.HasDeposit() {
		return &Reconciliation{Invoice: inv}, nil
	}

	st, err := r.provider.ExecutionStatus(ctx, *inv.DepositAddress, inv.DepositMemo)
	if err != nil {
		r.log.Warn("provider status unavailable, serving stored state",
			zap.String("invoice_id", inv.ID.String()), zap.Error(err))
		return &Reconciliation{Invoice: inv, Stale: true}, nil
	}
	return r.apply(ctx, inv, st, actor)
}

func (r *Reconciler) apply(ctx context.Context, inv *models.Invoice, st *oneclick.StatusResponse, actor string) (*Reconciliation, error) {
	rec := &Reconciliation{
		Invoice:        inv,
		AmountIn:       st.AmountInFormatted(),
		ProviderStatus: st.Status,
	}

	mapped, ok := oneclick.ToInvoiceStatus(st.Status)
	if !ok || mapped == inv.Status {
		return rec, nil
	}
	if !models.CanAdvance(inv.Status, mapped) {
		r.log.Debug("ignoring backward provider status",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("stored", string(inv.Status)),
			zap.String("provider", st.Status),
		)
		return rec, nil
	}

	now := r.now()
	applied, err := r.store.TransitionStatus(ctx, inv.ID, inv.Status, mapped, now)
	if err != nil {
		r.log.Error("status write failed, serving stored state",
			zap.String("invoice_id", inv.ID.String()), zap.Error(err))
		rec.Stale = true
		return rec, nil
	}

	fresh, err := r.load(ctx, inv.ID)
	switch {
	case err == nil:
		rec.Invoice = fresh
	case applied:
		// Write committed; reflect it locally.
		local := *inv
		local.Status = mapped
		local.UpdatedAt = now
		if mapped == models.InvoiceStatusCompleted && local.PaidAt == nil {
			local.PaidAt = &now
		}
		rec.Invoice = &local
	default:
		return nil, err
	}

	if !applied {
		r.log.Debug("lost status race, serving fresh record", zap.String("invoice_id", inv.ID.String()))
		return rec, nil
	}

	rec.Changed = true
	r.notify.statusChanged(ctx, statusChange{
		invoiceID: inv.ID,
		from:      inv.Status,
		to:        mapped,
		actorType: actor,
		action:    models.AuditInvoiceStatusChanged,
		meta:      map[string]any{"provider_status": st.Status},
	})
	return rec, nil
}
