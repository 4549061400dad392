package events

import "context"

// Channels
const (
	ChannelInvoice = "events:invoice"
)

// Event types
const (
	EventInvoiceStatusChanged = "invoice_status_changed"
	EventInvoiceQuoted        = "invoice_quoted"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// InvoiceID returns payload["invoice_id"] as a string, or "" when absent.
func (e Event) InvoiceID() string {
	id, _ := e.Payload["invoice_id"].(string)
	return id
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
