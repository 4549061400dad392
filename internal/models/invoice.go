package models

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

// Invoice statuses
const (
	InvoiceStatusPending         InvoiceStatus = "PENDING"
	InvoiceStatusAwaitingDeposit InvoiceStatus = "AWAITING_DEPOSIT"
	InvoiceStatusProcessing      InvoiceStatus = "PROCESSING"
	InvoiceStatusCompleted       InvoiceStatus = "COMPLETED"
	InvoiceStatusFailed          InvoiceStatus = "FAILED"
	InvoiceStatusRefunded        InvoiceStatus = "REFUNDED"
	InvoiceStatusExpired         InvoiceStatus = "EXPIRED"
)

// Valid state transitions: from -> []to
var ValidInvoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending:         {InvoiceStatusAwaitingDeposit},
	InvoiceStatusAwaitingDeposit: {InvoiceStatusProcessing, InvoiceStatusExpired, InvoiceStatusFailed},
	InvoiceStatusProcessing:      {InvoiceStatusCompleted, InvoiceStatusFailed, InvoiceStatusRefunded},
	InvoiceStatusCompleted:       {},
	InvoiceStatusFailed:          {},
	InvoiceStatusRefunded:        {},
	InvoiceStatusExpired:         {},
}

func IsValidTransition(from, to InvoiceStatus) bool {
	allowed, ok := ValidInvoiceTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// CanAdvance reports whether to is reachable from from along one or more
// transitions. Polling can miss intermediate statuses, so reconciliation
// accepts any forward jump but never a move back up the graph.
func CanAdvance(from, to InvoiceStatus) bool {
	if from == to {
		return false
	}
	seen := map[InvoiceStatus]bool{from: true}
	queue := []InvoiceStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range ValidInvoiceTransitions[cur] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func (s InvoiceStatus) Valid() bool {
	_, ok := ValidInvoiceTransitions[s]
	return ok
}

func (s InvoiceStatus) IsTerminal() bool {
	switch s {
	case InvoiceStatusCompleted, InvoiceStatusFailed, InvoiceStatusRefunded, InvoiceStatusExpired:
		return true
	}
	return false
}

// IsRefreshable reports whether the provider is still worth asking about s.
func (s InvoiceStatus) IsRefreshable() bool {
	return s == InvoiceStatusAwaitingDeposit || s == InvoiceStatusProcessing
}

type Invoice struct {
	ID             uuid.UUID     `json:"id"`
	MerchantID     *uuid.UUID    `json:"merchant_id,omitempty"`
	Status         InvoiceStatus `json:"status"`
	ReceiveToken   string        `json:"receive_token"`
	ReceiveNetwork string        `json:"receive_network"`
	Amount         string        `json:"amount"` // numeric as string
	WalletAddress  string        `json:"wallet_address"`
	Description    *string       `json:"description,omitempty"`
	BuyerName      *string       `json:"buyer_name,omitempty"`
	BuyerEmail     *string       `json:"buyer_email,omitempty"`
	BuyerAddress   *string       `json:"buyer_address,omitempty"`

	// Set once, when a quote is accepted.
	PayToken       *string    `json:"pay_token,omitempty"`
	PayNetwork     *string    `json:"pay_network,omitempty"`
	DepositAddress *string    `json:"deposit_address,omitempty"`
	DepositMemo    *string    `json:"deposit_memo,omitempty"`
	QuotedAt       *time.Time `json:"quoted_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasDeposit reports whether a deposit destination has been issued.
func (i *Invoice) HasDeposit() bool {
	return i.DepositAddress != nil && *i.DepositAddress != ""
}

// QuoteTerms is what a guarded PENDING -> AWAITING_DEPOSIT write persists.
type QuoteTerms struct {
	PayToken       string
	PayNetwork     string
	DepositAddress string
	DepositMemo    *string
	QuotedAt       time.Time
	ExpiresAt      time.Time
}
