package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

type fakeAPI struct {
	mu       sync.Mutex
	snap     dto.InvoiceSnapshot
	fetchErr error
	quote    *dto.QuoteResponse
	quoteErr error
	fetches  int
}

func (f *fakeAPI) GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	snap := f.snap
	return &snap, nil
}

func (f *fakeAPI) RequestQuote(ctx context.Context, id uuid.UUID, in QuoteInput) (*dto.QuoteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	q := *f.quote
	return &q, nil
}

func (f *fakeAPI) set(snap dto.InvoiceSnapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func startSession(t *testing.T, api API, initial dto.InvoiceSnapshot, poll time.Duration) (*Session, context.CancelFunc, chan error) {
	t.Helper()
	s, err := NewSession(api, initial, Options{PollInterval: poll, CountdownTick: 5 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return s, cancel, errc
}

func waitRun(t *testing.T, errc chan error) {
	t.Helper()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSessionStopsOnServerTerminal(t *testing.T) {
	api := &fakeAPI{}
	api.set(snapshot(models.InvoiceStatusCompleted, strPtr("dep"), strPtr("10"), nil))

	s, _, errc := startSession(t, api, snapshot(models.InvoiceStatusProcessing, strPtr("dep"), nil, nil), 10*time.Millisecond)
	waitRun(t, errc)

	v := s.View()
	assert.Equal(t, PhaseTerminal, v.Phase)
	assert.Equal(t, models.InvoiceStatusCompleted, v.Status)
	assert.False(t, v.Provisional)

	_, err := s.RequestQuote(context.Background(), QuoteInput{})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionQuoteTriggersRefetch(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	api := &fakeAPI{quote: &dto.QuoteResponse{DepositAddress: "0xdep", AmountIn: "12", ExpiresAt: expires}}
	api.set(snapshot(models.InvoiceStatusAwaitingDeposit, strPtr("0xdep"), nil, &expires))

	s, cancel, errc := startSession(t, api, snapshot(models.InvoiceStatusPending, nil, nil, nil), time.Hour)

	q, err := s.RequestQuote(context.Background(), QuoteInput{PayToken: "USDC", PayNetwork: "Ethereum", RefundAddress: "0xr"})
	require.NoError(t, err)
	assert.Equal(t, "0xdep", q.DepositAddress)

	require.Eventually(t, func() bool {
		return api.fetchCount() >= 1 && s.View().Status == models.InvoiceStatusAwaitingDeposit
	}, time.Second, 5*time.Millisecond)

	v := s.View()
	assert.Equal(t, PhaseAwaitingDeposit, v.Phase)
	assert.Equal(t, "12", *v.Instructions.AmountIn)

	cancel()
	waitRun(t, errc)
}

func TestSessionQuoteFailureKeepsSelecting(t *testing.T) {
	api := &fakeAPI{quoteErr: &APIError{StatusCode: 502, Message: "Failed to get swap quote"}}
	s, cancel, errc := startSession(t, api, snapshot(models.InvoiceStatusPending, nil, nil, nil), time.Hour)

	_, err := s.RequestQuote(context.Background(), QuoteInput{PayToken: "USDC"})
	require.Error(t, err)

	v := s.View()
	assert.Equal(t, PhaseSelecting, v.Phase)
	assert.Equal(t, "Failed to get swap quote", v.QuoteError)
	assert.False(t, v.QuotePending)
	assert.Zero(t, api.fetchCount())

	cancel()
	waitRun(t, errc)
}

func TestSessionCountdownDeclaresLocalExpiry(t *testing.T) {
	past := time.Now().Add(-time.Second)
	api := &fakeAPI{}
	api.set(snapshot(models.InvoiceStatusAwaitingDeposit, strPtr("dep"), nil, &past))

	s, cancel, errc := startSession(t, api, snapshot(models.InvoiceStatusAwaitingDeposit, strPtr("dep"), nil, &past), time.Hour)

	require.Eventually(t, func() bool { return s.View().Provisional }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.InvoiceStatusExpired, s.View().Status)

	cancel()
	waitRun(t, errc)
}

func TestSessionServerOverrulesLocalExpiry(t *testing.T) {
	past := time.Now().Add(-time.Second)
	api := &fakeAPI{}
	api.set(snapshot(models.InvoiceStatusAwaitingDeposit, strPtr("dep"), nil, &past))

	var mu sync.Mutex
	var phases []Phase
	s, err := NewSession(api, snapshot(models.InvoiceStatusAwaitingDeposit, strPtr("dep"), nil, &past), Options{
		PollInterval:  20 * time.Millisecond,
		CountdownTick: 5 * time.Millisecond,
		OnUpdate: func(v View) {
			mu.Lock()
			phases = append(phases, v.Phase)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.View().Provisional }, time.Second, 5*time.Millisecond)

	// Deposit landed after all; the server reports processing.
	api.set(snapshot(models.InvoiceStatusProcessing, strPtr("dep"), nil, &past))
	require.Eventually(t, func() bool { return s.View().Phase == PhaseProcessing }, time.Second, 5*time.Millisecond)
	assert.False(t, s.View().Provisional)

	cancel()
	waitRun(t, errc)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, phases, PhaseTerminal)
	assert.Equal(t, PhaseProcessing, phases[len(phases)-1])
}

func TestSessionSwallowsFetchErrors(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.New("connection refused")}
	initial := snapshot(models.InvoiceStatusAwaitingDeposit, strPtr("dep"), strPtr("4"), nil)
	s, cancel, errc := startSession(t, api, initial, 5*time.Millisecond)

	require.Eventually(t, func() bool { return api.fetchCount() >= 3 }, time.Second, 5*time.Millisecond)
	v := s.View()
	assert.Equal(t, PhaseAwaitingDeposit, v.Phase)
	assert.Equal(t, "4", *v.Instructions.AmountIn)

	cancel()
	waitRun(t, errc)
}

func TestNewSessionRejectsBadID(t *testing.T) {
	snap := snapshot(models.InvoiceStatusPending, nil, nil, nil)
	snap.ID = "nope"
	_, err := NewSession(&fakeAPI{}, snap, Options{})
	assert.Error(t, err)
}
