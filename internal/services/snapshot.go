package services

import (
	"time"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

// legacyQuoteWindow recovers quotedAt for rows written before it was stored.
const legacyQuoteWindow = 30 * time.Minute

// BuildSnapshot serializes inv into the normalized read model. amountIn is
// the provider's formatted input amount, if known.
func BuildSnapshot(inv *models.Invoice, amountIn *string) dto.InvoiceSnapshot {
	id := inv.ID.String()
	status := inv.Status
	updatedAt := inv.UpdatedAt

	timeline := dto.Timeline{
		CurrentStatus:      string(status),
		IsTerminal:         status.IsTerminal(),
		CreatedAt:          inv.CreatedAt,
		QuotedAt:           quotedAt(inv),
		ExpiresAt:          inv.ExpiresAt,
		PaidAt:             inv.PaidAt,
		LastStatusChangeAt: updatedAt,
	}
	switch status {
	case models.InvoiceStatusCompleted:
		timeline.CompletedAt = inv.PaidAt
	case models.InvoiceStatusFailed:
		timeline.FailedAt = &updatedAt
	case models.InvoiceStatusRefunded:
		timeline.RefundedAt = &updatedAt
	case models.InvoiceStatusExpired:
		timeline.ExpiredAt = &updatedAt
	}

	return dto.InvoiceSnapshot{
		ID:      id,
		Status:  string(status),
		Invoice: invoiceDetails(inv),
		PaymentInstructions: dto.PaymentInstructions{
			PayToken:       inv.PayToken,
			PayNetwork:     inv.PayNetwork,
			DepositAddress: inv.DepositAddress,
			DepositMemo:    inv.DepositMemo,
			AmountIn:       amountIn,
			ExpiresAt:      inv.ExpiresAt,
			PaidAt:         inv.PaidAt,
		},
		Timeline: timeline,
	}
}

func invoiceDetails(inv *models.Invoice) dto.InvoiceDetails {
	return dto.InvoiceDetails{
		ID:             inv.ID.String(),
		Amount:         inv.Amount,
		ReceiveToken:   inv.ReceiveToken,
		ReceiveNetwork: inv.ReceiveNetwork,
		WalletAddress:  inv.WalletAddress,
		Description:    inv.Description,
		BuyerName:      inv.BuyerName,
		BuyerEmail:     inv.BuyerEmail,
		BuyerAddress:   inv.BuyerAddress,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func quotedAt(inv *models.Invoice) *time.Time {
	if inv.QuotedAt != nil {
		return inv.QuotedAt
	}
	if !inv.HasDeposit() {
		return nil
	}
	if inv.ExpiresAt != nil {
		t := inv.ExpiresAt.Add(-legacyQuoteWindow)
		return &t
	}
	t := inv.UpdatedAt
	return &t
}
