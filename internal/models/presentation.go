package models

// Tone is a coarse visual hint for a status badge.
type Tone string

const (
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

type Presentation struct {
	Label       string `json:"label"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tone        Tone   `json:"tone"`
}

var failedPresentation = Presentation{
	Label:       "Failed",
	Title:       "Payment Failed",
	Description: "Something went wrong processing your payment.",
	Tone:        ToneDanger,
}

// PresentationFor returns the display copy for status. Unknown values get
// the failure copy rather than an empty badge.
func PresentationFor(status InvoiceStatus) Presentation {
	switch status {
	case InvoiceStatusPending:
		return Presentation{
			Label:       "Pending",
			Title:       "Choose how to pay",
			Description: "Select a token and network to get a quote.",
			Tone:        ToneWarning,
		}
	case InvoiceStatusAwaitingDeposit:
		return Presentation{
			Label:       "Awaiting Deposit",
			Title:       "Waiting for deposit...",
			Description: "Send the exact amount to the deposit address before the quote expires.",
			Tone:        ToneWarning,
		}
	case InvoiceStatusProcessing:
		return Presentation{
			Label:       "Processing",
			Title:       "Processing swap...",
			Description: "Your deposit was received and the swap is being executed.",
			Tone:        ToneInfo,
		}
	case InvoiceStatusCompleted:
		return Presentation{
			Label:       "Completed",
			Title:       "Payment Complete!",
			Description: "Your payment has been processed successfully.",
			Tone:        ToneSuccess,
		}
	case InvoiceStatusFailed:
		return failedPresentation
	case InvoiceStatusRefunded:
		return Presentation{
			Label:       "Refunded",
			Title:       "Payment Refunded",
			Description: "Your payment has been refunded to your wallet.",
			Tone:        ToneNeutral,
		}
	case InvoiceStatusExpired:
		return Presentation{
			Label:       "Expired",
			Title:       "Invoice Expired",
			Description: "This invoice has expired.",
			Tone:        ToneDanger,
		}
	default:
		return failedPresentation
	}
}
