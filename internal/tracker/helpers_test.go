package tracker

import (
	"time"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

const testInvoiceID = "0b0f6f49-9f3e-4a5c-8b1e-3f1f2f6f2a10"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func snapshot(status models.InvoiceStatus, deposit, amountIn *string, expiresAt *time.Time) dto.InvoiceSnapshot {
	return dto.InvoiceSnapshot{
		ID:     testInvoiceID,
		Status: string(status),
		Invoice: dto.InvoiceDetails{
			ID:             testInvoiceID,
			Amount:         "0.01",
			ReceiveToken:   "BTC",
			ReceiveNetwork: "Bitcoin",
		},
		PaymentInstructions: dto.PaymentInstructions{
			DepositAddress: deposit,
			AmountIn:       amountIn,
			ExpiresAt:      expiresAt,
		},
		Timeline: dto.Timeline{
			CurrentStatus: string(status),
			IsTerminal:    status.IsTerminal(),
			CreatedAt:     testNow.Add(-time.Hour),
		},
	}
}

func quoteSucceeded(deposit, amountIn string, expiresAt time.Time) QuoteSucceeded {
	return QuoteSucceeded{
		PayToken:   "USDC",
		PayNetwork: "Ethereum",
		Quote: dto.QuoteResponse{
			DepositAddress: deposit,
			AmountIn:       amountIn,
			AmountOut:      "0.01",
			ExpiresAt:      expiresAt,
		},
	}
}
