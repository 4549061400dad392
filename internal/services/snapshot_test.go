package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-cash/backend/internal/models"
)

func TestBuildSnapshotPending(t *testing.T) {
	inv := pendingInvoice()
	snap := BuildSnapshot(&inv, nil)

	assert.Equal(t, inv.ID.String(), snap.ID)
	assert.Equal(t, "PENDING", snap.Status)
	assert.Equal(t, "0.015", snap.Invoice.Amount)
	assert.Nil(t, snap.PaymentInstructions.DepositAddress)
	assert.Nil(t, snap.PaymentInstructions.AmountIn)
	assert.Nil(t, snap.Timeline.QuotedAt)
	assert.False(t, snap.Timeline.IsTerminal)
	assert.True(t, inv.UpdatedAt.Equal(snap.Timeline.LastStatusChangeAt))
}

func TestBuildSnapshotTerminalTimestamps(t *testing.T) {
	paid := testNow.Add(-time.Minute)
	tests := []struct {
		status models.InvoiceStatus
		check  func(t *testing.T, inv models.Invoice, completed, failed, refunded, expired *time.Time)
	}{
		{models.InvoiceStatusCompleted, func(t *testing.T, inv models.Invoice, completed, failed, refunded, expired *time.Time) {
			require.NotNil(t, completed)
			assert.True(t, paid.Equal(*completed))
			assert.Nil(t, failed)
		}},
		{models.InvoiceStatusFailed, func(t *testing.T, inv models.Invoice, completed, failed, refunded, expired *time.Time) {
			require.NotNil(t, failed)
			assert.True(t, inv.UpdatedAt.Equal(*failed))
			assert.Nil(t, completed)
		}},
		{models.InvoiceStatusRefunded, func(t *testing.T, inv models.Invoice, completed, failed, refunded, expired *time.Time) {
			require.NotNil(t, refunded)
			assert.True(t, inv.UpdatedAt.Equal(*refunded))
		}},
		{models.InvoiceStatusExpired, func(t *testing.T, inv models.Invoice, completed, failed, refunded, expired *time.Time) {
			require.NotNil(t, expired)
			assert.True(t, inv.UpdatedAt.Equal(*expired))
			assert.Nil(t, refunded)
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			inv := quotedInvoice(tt.status, "dep")
			inv.UpdatedAt = testNow
			if tt.status == models.InvoiceStatusCompleted {
				inv.PaidAt = &paid
			}
			snap := BuildSnapshot(&inv, strPtr("10"))
			tl := snap.Timeline
			assert.True(t, tl.IsTerminal)
			assert.Equal(t, string(tt.status), tl.CurrentStatus)
			assert.Equal(t, "10", *snap.PaymentInstructions.AmountIn)
			tt.check(t, inv, tl.CompletedAt, tl.FailedAt, tl.RefundedAt, tl.ExpiredAt)
		})
	}
}

func TestBuildSnapshotQuotedAt(t *testing.T) {
	t.Run("stored value wins", func(t *testing.T) {
		inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep")
		snap := BuildSnapshot(&inv, nil)
		assert.True(t, inv.QuotedAt.Equal(*snap.Timeline.QuotedAt))
	})

	t.Run("legacy row derives from expiry", func(t *testing.T) {
		inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep")
		inv.QuotedAt = nil
		snap := BuildSnapshot(&inv, nil)
		require.NotNil(t, snap.Timeline.QuotedAt)
		assert.True(t, inv.ExpiresAt.Add(-30*time.Minute).Equal(*snap.Timeline.QuotedAt))
	})

	t.Run("legacy row without expiry uses updatedAt", func(t *testing.T) {
		inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep")
		inv.QuotedAt = nil
		inv.ExpiresAt = nil
		snap := BuildSnapshot(&inv, nil)
		require.NotNil(t, snap.Timeline.QuotedAt)
		assert.True(t, inv.UpdatedAt.Equal(*snap.Timeline.QuotedAt))
	})
}
