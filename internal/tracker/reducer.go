package tracker

import (
	"time"

	"github.com/weave-cash/backend/internal/models"
)

const defaultQuoteError = "Failed to get quote. Please try again."

// Reduce applies ev to s and returns the next state. s is not modified.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case QuoteRequested:
		s.QuoteError = ""
		s.QuoteFields = nil
		s.QuotePending = true

	case QuoteSucceeded:
		s.QuoteError = ""
		s.QuoteFields = nil
		s.QuotePending = false
		s.Optimistic = quoteInstructions(e)
		if e.Quote.AmountIn != "" {
			amount := e.Quote.AmountIn
			s.LastKnownAmountIn = &amount
		}
		if !s.ConfirmedTerminal() {
			s.Stage = AwaitingDeposit{}
		}

	case QuoteFailed:
		s.QuotePending = false
		s.QuoteError = e.Message
		if s.QuoteError == "" {
			s.QuoteError = defaultQuoteError
		}
		s.QuoteFields = e.Fields

	case InvoiceSynced:
		return synced(s, e)

	case CountdownExpired:
		if !s.ConfirmedTerminal() {
			s.Stage = Terminal{Override: models.InvoiceStatusExpired}
		}
	}
	return s
}

func synced(s State, e InvoiceSynced) State {
	snap := e.Snapshot
	pi := snap.PaymentInstructions

	if pi.DepositAddress != nil {
		s.Optimistic = nil
	}
	if pi.AmountIn != nil {
		amount := *pi.AmountIn
		s.LastKnownAmountIn = &amount
	}

	if s.ConfirmedTerminal() {
		return s
	}

	status := models.InvoiceStatus(snap.Timeline.CurrentStatus)
	_, overridden := s.Override()
	switch {
	case snap.Timeline.IsTerminal || status.IsTerminal():
		s.Stage = Terminal{}
	case overridden && (status == models.InvoiceStatusAwaitingDeposit || status == models.InvoiceStatusPending):
		// server has not caught up with the local expiry yet
	default:
		hasDeposit := pi.DepositAddress != nil || (s.Optimistic != nil && s.Optimistic.DepositAddress != nil)
		s.Stage = stageFor(DerivePhase(status, hasDeposit))
	}
	return s
}

func quoteInstructions(e QuoteSucceeded) *Instructions {
	return &Instructions{
		DepositAddress: strOrNil(e.Quote.DepositAddress),
		DepositMemo:    e.Quote.DepositMemo,
		AmountIn:       strOrNil(e.Quote.AmountIn),
		PayToken:       strOrNil(e.PayToken),
		PayNetwork:     strOrNil(e.PayNetwork),
		ExpiresAt:      timeOrNil(e.Quote.ExpiresAt),
	}
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
