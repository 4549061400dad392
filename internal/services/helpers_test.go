package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/assets"
	"github.com/weave-cash/backend/internal/config"
	"github.com/weave-cash/backend/internal/fakes"
	"github.com/weave-cash/backend/internal/models"
)

const (
	testEthAddress = "0xdac17f958d2ee523a2206206994597c13d831ec7"
	testBtcAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	store      *fakes.MemoryInvoiceStore
	provider   *fakes.StubProvider
	audit      *fakes.MemoryAuditLog
	publisher  *fakes.RecordingPublisher
	reconciler *Reconciler
	quotes     *QuoteService
	invoices   *InvoiceService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     fakes.NewMemoryInvoiceStore(),
		provider:  fakes.NewStubProvider(),
		audit:     &fakes.MemoryAuditLog{},
		publisher: &fakes.RecordingPublisher{},
	}
	log := zap.NewNop()
	cfg := &config.Config{
		QuoteValidity:    30 * time.Minute,
		QuoteSlippageBPS: 100,
		OneClickReferral: "weave-cash",
	}

	h.reconciler = NewReconciler(h.store, h.provider, h.audit, h.publisher, log)
	h.reconciler.now = func() time.Time { return testNow }
	h.quotes = NewQuoteService(h.store, h.provider, assets.DefaultAddressValidator{}, h.audit, h.publisher, cfg, log)
	h.quotes.now = func() time.Time { return testNow }
	h.invoices = NewInvoiceService(h.store, h.audit, h.reconciler, assets.DefaultAddressValidator{}, log)
	return h
}

func strPtr(s string) *string { return &s }

func pendingInvoice() models.Invoice {
	return models.Invoice{
		ID:             uuid.New(),
		Status:         models.InvoiceStatusPending,
		ReceiveToken:   assets.TokenBTC,
		ReceiveNetwork: assets.NetworkBitcoin,
		Amount:         "0.015",
		WalletAddress:  testBtcAddress,
		CreatedAt:      testNow.Add(-time.Hour),
		UpdatedAt:      testNow.Add(-time.Hour),
	}
}

// quotedInvoice is an invoice that already has deposit instructions.
func quotedInvoice(status models.InvoiceStatus, deposit string) models.Invoice {
	inv := pendingInvoice()
	inv.Status = status
	inv.PayToken = strPtr(assets.TokenUSDC)
	inv.PayNetwork = strPtr(assets.NetworkEthereum)
	inv.DepositAddress = strPtr(deposit)
	quoted := testNow.Add(-10 * time.Minute)
	expires := quoted.Add(30 * time.Minute)
	inv.QuotedAt = &quoted
	inv.ExpiresAt = &expires
	return inv
}
