// Package tracker follows a single invoice from the payer's side: it polls
// snapshots, merges them with unconfirmed quote data and derives what to show.
package tracker

import (
	"time"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

type Phase string

const (
	PhaseSelecting       Phase = "selecting"
	PhaseAwaitingDeposit Phase = "awaitingDeposit"
	PhaseProcessing      Phase = "processing"
	PhaseTerminal        Phase = "terminal"
)

// Stage is the tracker's position in selecting -> awaitingDeposit ->
// processing -> terminal. Only the types in this file implement it.
type Stage interface {
	Phase() Phase
	stage()
}

type Selecting struct{}
type AwaitingDeposit struct{}
type Processing struct{}

// Terminal with an empty Override was reported by the server and is never
// left again. A non-empty Override is a local judgment awaiting the server.
type Terminal struct {
	Override models.InvoiceStatus
}

func (Selecting) Phase() Phase       { return PhaseSelecting }
func (AwaitingDeposit) Phase() Phase { return PhaseAwaitingDeposit }
func (Processing) Phase() Phase      { return PhaseProcessing }
func (Terminal) Phase() Phase        { return PhaseTerminal }

func (Selecting) stage()       {}
func (AwaitingDeposit) stage() {}
func (Processing) stage()      {}
func (Terminal) stage()        {}

func (t Terminal) Confirmed() bool { return t.Override == "" }

// Instructions is a payment-instruction set. Nil fields are unknown.
type Instructions struct {
	PayToken       *string    `json:"payToken"`
	PayNetwork     *string    `json:"payNetwork"`
	DepositAddress *string    `json:"depositAddress"`
	DepositMemo    *string    `json:"depositMemo"`
	AmountIn       *string    `json:"amountIn"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	PaidAt         *time.Time `json:"paidAt"`
}

type State struct {
	Stage             Stage
	Optimistic        *Instructions
	LastKnownAmountIn *string
	QuoteError        string
	QuoteFields       map[string][]string
	QuotePending      bool
}

// NewState seeds a tracker from the first snapshot it is handed.
func NewState(snap dto.InvoiceSnapshot) State {
	status := models.InvoiceStatus(snap.Timeline.CurrentStatus)
	var stage Stage = stageFor(DerivePhase(status, snap.PaymentInstructions.DepositAddress != nil))
	if snap.Timeline.IsTerminal {
		stage = Terminal{}
	}
	return State{
		Stage:             stage,
		LastKnownAmountIn: snap.PaymentInstructions.AmountIn,
	}
}

func (s State) Phase() Phase {
	if s.Stage == nil {
		return PhaseSelecting
	}
	return s.Stage.Phase()
}

// Override returns the locally declared terminal status, if any.
func (s State) Override() (models.InvoiceStatus, bool) {
	t, ok := s.Stage.(Terminal)
	if !ok || t.Confirmed() {
		return "", false
	}
	return t.Override, true
}

func (s State) ConfirmedTerminal() bool {
	t, ok := s.Stage.(Terminal)
	return ok && t.Confirmed()
}

// DerivePhase maps a server status onto a phase. hasDepositAddress counts
// optimistic instructions too.
func DerivePhase(status models.InvoiceStatus, hasDepositAddress bool) Phase {
	switch {
	case status.IsTerminal():
		return PhaseTerminal
	case status == models.InvoiceStatusProcessing:
		return PhaseProcessing
	case status == models.InvoiceStatusAwaitingDeposit, hasDepositAddress:
		return PhaseAwaitingDeposit
	default:
		return PhaseSelecting
	}
}

func stageFor(p Phase) Stage {
	switch p {
	case PhaseTerminal:
		return Terminal{}
	case PhaseProcessing:
		return Processing{}
	case PhaseAwaitingDeposit:
		return AwaitingDeposit{}
	default:
		return Selecting{}
	}
}
