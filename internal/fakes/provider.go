package fakes

import (
	"context"
	"sync"

	"github.com/weave-cash/backend/internal/oneclick"
)

// StubProvider answers execution-status lookups by deposit address and
// returns a canned quote.
type StubProvider struct {
	mu sync.Mutex

	statuses  map[string]*oneclick.StatusResponse
	StatusErr error

	QuoteResponse *oneclick.QuoteResponse
	QuoteErr      error

	quoteRequests []oneclick.QuoteRequest
	statusCalls   int
}

func NewStubProvider() *StubProvider {
	return &StubProvider{statuses: make(map[string]*oneclick.StatusResponse)}
}

// SetStatus makes depositAddress report code, with an optional formatted
// input amount.
func (p *StubProvider) SetStatus(depositAddress, code, amountIn string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	resp := &oneclick.StatusResponse{Status: code}
	if amountIn != "" {
		resp.QuoteResponse = &oneclick.QuoteResponse{Quote: oneclick.QuoteDetails{
			DepositAddress:    depositAddress,
			AmountInFormatted: amountIn,
		}}
	}
	p.statuses[depositAddress] = resp
}

func (p *StubProvider) ExecutionStatus(ctx context.Context, depositAddress string, depositMemo *string) (*oneclick.StatusResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusCalls++
	if p.StatusErr != nil {
		return nil, p.StatusErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, ok := p.statuses[depositAddress]
	if !ok {
		return &oneclick.StatusResponse{Status: oneclick.StatusPendingDeposit}, nil
	}
	cp := *resp
	return &cp, nil
}

func (p *StubProvider) Quote(ctx context.Context, req oneclick.QuoteRequest) (*oneclick.QuoteResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quoteRequests = append(p.quoteRequests, req)
	if p.QuoteErr != nil {
		return nil, p.QuoteErr
	}
	if p.QuoteResponse == nil {
		return &oneclick.QuoteResponse{Quote: oneclick.QuoteDetails{
			DepositAddress:     "stub-deposit-address",
			AmountInFormatted:  "1",
			AmountOutFormatted: "1",
		}}, nil
	}
	cp := *p.QuoteResponse
	return &cp, nil
}

func (p *StubProvider) QuoteRequests() []oneclick.QuoteRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]oneclick.QuoteRequest(nil), p.quoteRequests...)
}

func (p *StubProvider) StatusCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusCalls
}
