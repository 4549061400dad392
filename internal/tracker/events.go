package tracker

import "github.com/weave-cash/backend/internal/http/dto"

// Event is anything that can move a tracker State. The set is closed.
type Event interface {
	event()
}

type QuoteRequested struct{}

type QuoteSucceeded struct {
	PayToken   string
	PayNetwork string
	Quote      dto.QuoteResponse
}

type QuoteFailed struct {
	Message string
	Fields  map[string][]string
}

type InvoiceSynced struct {
	Snapshot dto.InvoiceSnapshot
}

type CountdownExpired struct{}

func (QuoteRequested) event()   {}
func (QuoteSucceeded) event()   {}
func (QuoteFailed) event()      {}
func (InvoiceSynced) event()    {}
func (CountdownExpired) event() {}
