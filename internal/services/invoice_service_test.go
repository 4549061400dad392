package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-cash/backend/internal/assets"
	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/oneclick"
)

func TestCreateInvoice(t *testing.T) {
	h := newHarness(t)
	merchant := uuid.New()

	inv, err := h.invoices.CreateInvoice(context.Background(), &merchant, CreateInvoiceInput{
		ReceiveToken:   assets.TokenUSDC,
		ReceiveNetwork: assets.NetworkEthereum,
		Amount:         "250.50",
		WalletAddress:  " " + testEthAddress + " ",
		BuyerEmail:     strPtr(""),
		Description:    strPtr("Consulting, March"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "250.5", inv.Amount)
	assert.Equal(t, testEthAddress, inv.WalletAddress)
	assert.Nil(t, inv.BuyerEmail)
	assert.Equal(t, "Consulting, March", *inv.Description)

	entries := h.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditInvoiceCreated, entries[0].Action)
	assert.Equal(t, models.ActorMerchant, entries[0].ActorType)
}

func TestCreateInvoiceValidation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInvoiceInput
		field string
	}{
		{"unknown token", CreateInvoiceInput{ReceiveToken: "XRP", ReceiveNetwork: assets.NetworkEthereum, Amount: "1", WalletAddress: testEthAddress}, "receiveToken"},
		{"bad network", CreateInvoiceInput{ReceiveToken: assets.TokenBTC, ReceiveNetwork: assets.NetworkEthereum, Amount: "1", WalletAddress: testEthAddress}, "receiveNetwork"},
		{"bad wallet", CreateInvoiceInput{ReceiveToken: assets.TokenBTC, ReceiveNetwork: assets.NetworkBitcoin, Amount: "1", WalletAddress: testEthAddress}, "walletAddress"},
		{"zero amount", CreateInvoiceInput{ReceiveToken: assets.TokenBTC, ReceiveNetwork: assets.NetworkBitcoin, Amount: "0", WalletAddress: testBtcAddress}, "amount"},
		{"dust amount", CreateInvoiceInput{ReceiveToken: assets.TokenBTC, ReceiveNetwork: assets.NetworkBitcoin, Amount: "0.000000001", WalletAddress: testBtcAddress}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.invoices.CreateInvoice(context.Background(), nil, tt.input)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.NotEmpty(t, ve.Fields[tt.field])
		})
	}
}

func TestGetSnapshotReconciles(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-snap")
	h.store.Put(inv)
	h.provider.SetStatus("dep-snap", oneclick.StatusSuccess, "101.2")

	snap, err := h.invoices.GetSnapshot(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", snap.Status)
	assert.Equal(t, "101.2", *snap.PaymentInstructions.AmountIn)
	assert.NotNil(t, snap.Timeline.CompletedAt)
}

func TestGetSnapshotNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.invoices.GetSnapshot(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestGetStatusIncludesProviderCode(t *testing.T) {
	h := newHarness(t)
	inv := quotedInvoice(models.InvoiceStatusAwaitingDeposit, "dep-st")
	h.store.Put(inv)
	h.provider.SetStatus("dep-st", oneclick.StatusKnownDepositTx, "")

	st, err := h.invoices.GetStatus(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "AWAITING_DEPOSIT", st.Status)
	require.NotNil(t, st.SDKStatus)
	assert.Equal(t, oneclick.StatusKnownDepositTx, *st.SDKStatus)
	assert.True(t, st.DepositDetected)
	assert.Equal(t, "dep-st", *st.DepositAddress)
}

func TestGetStatusPendingHasNoProviderCode(t *testing.T) {
	h := newHarness(t)
	inv := pendingInvoice()
	h.store.Put(inv)

	st, err := h.invoices.GetStatus(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Nil(t, st.SDKStatus)
	assert.False(t, st.DepositDetected)
}

func TestListInvoicesScopedToMerchant(t *testing.T) {
	h := newHarness(t)
	mine, other := uuid.New(), uuid.New()
	a := pendingInvoice()
	a.MerchantID = &mine
	b := pendingInvoice()
	b.MerchantID = &other
	h.store.Put(a)
	h.store.Put(b)

	list, err := h.invoices.ListInvoices(context.Background(), mine, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	bad := models.InvoiceStatus("NOPE")
	_, err = h.invoices.ListInvoices(context.Background(), mine, &bad, 10, 0)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestListEventsHidesOtherMerchants(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	inv, err := h.invoices.CreateInvoice(context.Background(), &owner, CreateInvoiceInput{
		ReceiveToken:   assets.TokenBTC,
		ReceiveNetwork: assets.NetworkBitcoin,
		Amount:         "0.1",
		WalletAddress:  testBtcAddress,
	})
	require.NoError(t, err)

	logs, err := h.invoices.ListEvents(context.Background(), owner, inv.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = h.invoices.ListEvents(context.Background(), uuid.New(), inv.ID, 10, 0)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
