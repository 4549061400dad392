package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-cash/backend/internal/events"
	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/oneclick"
)

func TestReconcileNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.reconciler.Reconcile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestReconcileSkipsProviderWhenNotRefreshable(t *testing.T) {
	h := newHarness(t)
	pending := pendingInvoice()
	h.store.Put(pending)
	completed := quotedInvoice(models.InvoiceStatusCompleted, "dep-done")
	completed.PaidAt = &testNow
	h.store.Put(completed)

	for _, id := range []uuid.UUID{pending.ID, completed.ID} {
		rec, err := h.reconciler.Reconcile(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, rec.Changed)
		assert.Empty(t, rec.ProviderStatus)
	}
	assert.Zero(t, h.provider.StatusCalls())
}

func TestReconcileAdvancesStatus(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-1")
	h.store.Put(inv)
	h.provider.SetStatus("dep-1", oneclick.StatusProcessing, "25.10")

	rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
	require.NoError(t, err)

	assert.True(t, rec.Changed)
	assert.False(t, rec.Stale)
	assert.Equal(t, models.InvoiceStatusProcessing, rec.Invoice.Status)
	assert.Equal(t, oneclick.StatusProcessing, rec.ProviderStatus)
	require.NotNil(t, rec.AmountIn)
	assert.Equal(t, "25.10", *rec.AmountIn)
	assert.Nil(t, rec.Invoice.PaidAt)

	stored, _ := h.store.Snapshot(inv.ID)
	assert.Equal(t, models.InvoiceStatusProcessing, stored.Status)

	evts := h.publisher.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.ChannelInvoice, evts[0].Channel)
	assert.Equal(t, events.EventInvoiceStatusChanged, evts[0].Event.Type)
	assert.Equal(t, inv.ID.String(), evts[0].Event.InvoiceID())
	assert.Equal(t, "PROCESSING", evts[0].Event.Payload["new_status"])

	entries := h.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditInvoiceStatusChanged, entries[0].Action)
}

func TestReconcileSkipsMissedIntermediateStatus(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-2")
	h.store.Put(inv)
	h.provider.SetStatus("dep-2", oneclick.StatusSuccess, "")

	rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusCompleted, rec.Invoice.Status)
	require.NotNil(t, rec.Invoice.PaidAt)
	assert.True(t, testNow.Equal(*rec.Invoice.PaidAt))
	assert.Nil(t, rec.AmountIn)
}

func TestReconcileProviderFailureServesStoredState(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-3")
	h.store.Put(inv)
	h.provider.StatusErr = errors.New("dial tcp: i/o timeout")

	rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, rec.Stale)
	assert.False(t, rec.Changed)
	assert.Equal(t, models.InvoiceStatusAwaitingDeposit, rec.Invoice.Status)
	assert.Empty(t, h.publisher.Events())
}

func TestReconcileIgnoresUnknownAndBackwardCodes(t *testing.T) {
	tests := []struct {
		name   string
		stored models.InvoiceStatus
		code   string
	}{
		{"unknown code", models.InvoiceStatusAwaitingDeposit, "SOMETHING_NEW"},
		{"same status", models.InvoiceStatusAwaitingDeposit, oneclick.StatusKnownDepositTx},
		{"backward", models.InvoiceStatusProcessing, oneclick.StatusPendingDeposit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			inv := quotedInvoice(tt.stored, "dep-x")
			h.store.Put(inv)
			h.provider.SetStatus("dep-x", tt.code, "")

			rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
			require.NoError(t, err)
			assert.False(t, rec.Changed)
			assert.Equal(t, tt.code, rec.ProviderStatus)
			assert.Equal(t, tt.stored, rec.Invoice.Status)

			stored, _ := h.store.Snapshot(inv.ID)
			assert.Equal(t, tt.stored, stored.Status)
			assert.Empty(t, h.publisher.Events())
		})
	}
}

func TestReconcileLostRaceReturnsFreshRecord(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-4")
	h.store.Put(inv)
	h.provider.SetStatus("dep-4", oneclick.StatusProcessing, "")

	// A concurrent reconciler commits first.
	h.store.BeforeWrite = func(id uuid.UUID) {
		h.store.BeforeWrite = nil
		winner := inv
		winner.Status = models.InvoiceStatusProcessing
		winner.UpdatedAt = testNow
		h.store.Put(winner)
	}

	rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.False(t, rec.Changed)
	assert.Equal(t, models.InvoiceStatusProcessing, rec.Invoice.Status)
	assert.Empty(t, h.publisher.Events())
}

func TestReconcileConcurrentAppliesOnce(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusProcessing, "dep-5")
	h.store.Put(inv)
	h.provider.SetStatus("dep-5", oneclick.StatusSuccess, "")

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan *Reconciliation, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
			if assert.NoError(t, err) {
				results <- rec
			}
		}()
	}
	wg.Wait()
	close(results)

	changed := 0
	for rec := range results {
		assert.Equal(t, models.InvoiceStatusCompleted, rec.Invoice.Status)
		if rec.Changed {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
	assert.Len(t, h.publisher.Events(), 1)

	stored, _ := h.store.Snapshot(inv.ID)
	assert.Equal(t, models.InvoiceStatusCompleted, stored.Status)
	require.NotNil(t, stored.PaidAt)
}

func TestReconcileSinkFailuresAreNotFatal(t *testing.T) {
	h := newHarness(t)
	h.publisher.Err = errors.New("redis down")
	h.audit.Err = errors.New("db down")
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-6")
	h.store.Put(inv)
	h.provider.SetStatus("dep-6", oneclick.StatusFailed, "")

	rec, err := h.reconciler.Reconcile(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, rec.Changed)
	assert.Equal(t, models.InvoiceStatusFailed, rec.Invoice.Status)
}

func TestReconcileBatch(t *testing.T) {
	h := newHarness(t)
	a := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-a")
	b := quotedInvoice(models.InvoiceStatusProcessing, "dep-b")
	c := pendingInvoice()
	h.store.Put(a)
	h.store.Put(b)
	h.store.Put(c)
	h.provider.SetStatus("dep-a", oneclick.StatusProcessing, "")
	h.provider.SetStatus("dep-b", oneclick.StatusProcessing, "")

	changed, err := h.reconciler.ReconcileBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, 2, h.provider.StatusCalls())
}

func TestSweepExpired(t *testing.T) {
	h := newHarness(t)
	grace := 5 * time.Minute

	overdue := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-overdue")
	past := testNow.Add(-10 * time.Minute)
	overdue.ExpiresAt = &past
	h.store.Put(overdue)

	paidLate := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-paid")
	paidLate.ExpiresAt = &past
	h.store.Put(paidLate)
	h.provider.SetStatus("dep-paid", oneclick.StatusProcessing, "")

	inGrace := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-grace")
	recent := testNow.Add(-2 * time.Minute)
	inGrace.ExpiresAt = &recent
	h.store.Put(inGrace)

	expired, err := h.reconciler.SweepExpired(context.Background(), grace, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, _ := h.store.Snapshot(overdue.ID)
	assert.Equal(t, models.InvoiceStatusExpired, got.Status)
	got, _ = h.store.Snapshot(paidLate.ID)
	assert.Equal(t, models.InvoiceStatusProcessing, got.Status)
	got, _ = h.store.Snapshot(inGrace.ID)
	assert.Equal(t, models.InvoiceStatusAwaitingDeposit, got.Status)
}

func TestSweepExpiredSkipsWhenProviderDown(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-down")
	past := testNow.Add(-time.Hour)
	inv.ExpiresAt = &past
	h.store.Put(inv)
	h.provider.StatusErr = errors.New("503")

	expired, err := h.reconciler.SweepExpired(context.Background(), time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, expired)
	got, _ := h.store.Snapshot(inv.ID)
	assert.Equal(t, models.InvoiceStatusAwaitingDeposit, got.Status)
}
