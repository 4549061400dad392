package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

// Sections says which parts of the payment page are visible.
type Sections struct {
	ShowQuote        bool `json:"showQuote"`
	ShowInstructions bool `json:"showInstructions"`
	ShowTerminal     bool `json:"showTerminal"`
}

func SectionsFor(p Phase) Sections {
	return Sections{
		ShowQuote:        p == PhaseSelecting,
		ShowInstructions: p == PhaseAwaitingDeposit || p == PhaseProcessing,
		ShowTerminal:     p == PhaseTerminal,
	}
}

type View struct {
	ID           string               `json:"id"`
	Status       models.InvoiceStatus `json:"status"`
	Phase        Phase                `json:"phase"`
	Provisional  bool                 `json:"provisional"`
	Sections     Sections             `json:"sections"`
	Presentation models.Presentation  `json:"presentation"`
	Instructions Instructions         `json:"instructions"`
	QuoteError   string               `json:"quoteError,omitempty"`
	QuoteFields  map[string][]string  `json:"quoteFields,omitempty"`
	QuotePending bool                 `json:"quotePending"`
	Invoice      dto.InvoiceDetails   `json:"invoice"`
	Timeline     dto.Timeline         `json:"timeline"`
}

// BuildView merges the last snapshot with the tracker state.
func BuildView(snap dto.InvoiceSnapshot, s State) View {
	status := models.InvoiceStatus(snap.Timeline.CurrentStatus)
	override, provisional := s.Override()
	if provisional {
		status = override
	}
	phase := s.Phase()

	return View{
		ID:           snap.ID,
		Status:       status,
		Phase:        phase,
		Provisional:  provisional,
		Sections:     SectionsFor(phase),
		Presentation: models.PresentationFor(status),
		Instructions: mergeInstructions(snap.PaymentInstructions, s.Optimistic, s.LastKnownAmountIn),
		QuoteError:   s.QuoteError,
		QuoteFields:  s.QuoteFields,
		QuotePending: s.QuotePending,
		Invoice:      snap.Invoice,
		Timeline:     snap.Timeline,
	}
}

// mergeInstructions overlays optimistic onto the server fields one by one.
func mergeInstructions(server dto.PaymentInstructions, optimistic *Instructions, lastAmountIn *string) Instructions {
	out := Instructions{
		PayToken:       server.PayToken,
		PayNetwork:     server.PayNetwork,
		DepositAddress: server.DepositAddress,
		DepositMemo:    server.DepositMemo,
		AmountIn:       server.AmountIn,
		ExpiresAt:      server.ExpiresAt,
		PaidAt:         server.PaidAt,
	}
	if o := optimistic; o != nil {
		if o.PayToken != nil {
			out.PayToken = o.PayToken
		}
		if o.PayNetwork != nil {
			out.PayNetwork = o.PayNetwork
		}
		if o.DepositAddress != nil {
			out.DepositAddress = o.DepositAddress
		}
		if o.DepositMemo != nil {
			out.DepositMemo = o.DepositMemo
		}
		if o.AmountIn != nil {
			out.AmountIn = o.AmountIn
		}
		if o.ExpiresAt != nil {
			out.ExpiresAt = o.ExpiresAt
		}
		if o.PaidAt != nil {
			out.PaidAt = o.PaidAt
		}
	}
	if out.AmountIn == nil {
		out.AmountIn = lastAmountIn
	}
	return out
}

// Remaining is the time left on the quote, or false when there is no
// deadline or it has passed.
func (v View) Remaining(now time.Time) (time.Duration, bool) {
	if v.Instructions.ExpiresAt == nil {
		return 0, false
	}
	left := v.Instructions.ExpiresAt.Sub(now).Truncate(time.Second)
	if left <= 0 {
		return 0, false
	}
	return left, true
}

// FormatCountdown renders d as "1h 2m 3s", dropping zero hours and minutes.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, sec := total/3600, (total%3600)/60, total%60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", sec))
	return strings.Join(parts, " ")
}
