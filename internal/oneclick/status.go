package oneclick

import "github.com/weave-cash/backend/internal/models"

// Execution status codes reported by the provider.
const (
	StatusPendingDeposit    = "PENDING_DEPOSIT"
	StatusKnownDepositTx    = "KNOWN_DEPOSIT_TX"
	StatusIncompleteDeposit = "INCOMPLETE_DEPOSIT"
	StatusProcessing        = "PROCESSING"
	StatusSuccess           = "SUCCESS"
	StatusRefunded          = "REFUNDED"
	StatusFailed            = "FAILED"
)

// ToInvoiceStatus maps a provider execution code onto the invoice
// vocabulary. ok is false for codes that must not move an invoice.
func ToInvoiceStatus(code string) (status models.InvoiceStatus, ok bool) {
	switch code {
	case StatusPendingDeposit, StatusKnownDepositTx, StatusIncompleteDeposit:
		return models.InvoiceStatusAwaitingDeposit, true
	case StatusProcessing:
		return models.InvoiceStatusProcessing, true
	case StatusSuccess:
		return models.InvoiceStatusCompleted, true
	case StatusRefunded:
		return models.InvoiceStatusRefunded, true
	case StatusFailed:
		return models.InvoiceStatusFailed, true
	default:
		return "", false
	}
}

// IsDepositDetected reports whether the provider has seen funds arrive.
func IsDepositDetected(code string) bool {
	switch code {
	case StatusKnownDepositTx, StatusProcessing, StatusSuccess:
		return true
	}
	return false
}
