package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/http/dto"
)

var (
	ErrSessionClosed = errors.New("tracker session closed")
	ErrQuotePending  = errors.New("a quote request is already in flight")
)

type Options struct {
	PollInterval  time.Duration
	CountdownTick time.Duration
	// OnUpdate is called from the session goroutine after every state change.
	OnUpdate func(View)
	Log      *zap.Logger
}

// Session runs one tracker: a poll loop and a countdown, both driven from
// a single goroutine so State is never shared.
type Session struct {
	api       API
	invoiceID uuid.UUID
	initial   dto.InvoiceSnapshot
	opts      Options
	log       *zap.Logger
	now       func() time.Time

	cmds chan quoteCmd
	done chan struct{}

	mu   sync.RWMutex
	view View
}

type quoteCmd struct {
	input QuoteInput
	reply chan quoteResult
}

type quoteResult struct {
	input QuoteInput
	quote *dto.QuoteResponse
	err   error
}

type fetchResult struct {
	snap *dto.InvoiceSnapshot
	err  error
}

func NewSession(api API, initial dto.InvoiceSnapshot, opts Options) (*Session, error) {
	id, err := uuid.Parse(initial.ID)
	if err != nil {
		return nil, err
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.CountdownTick <= 0 {
		opts.CountdownTick = time.Second
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		api:       api,
		invoiceID: id,
		initial:   initial,
		opts:      opts,
		log:       log.With(zap.String("invoice_id", id.String())),
		now:       time.Now,
		cmds:      make(chan quoteCmd),
		done:      make(chan struct{}),
		view:      BuildView(initial, NewState(initial)),
	}, nil
}

// View returns the latest rendered view. Safe from any goroutine.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Done is closed when Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// RequestQuote asks the running session to obtain a quote. It waits for
// the answer; a successful quote is followed by an immediate refetch.
func (s *Session) RequestQuote(ctx context.Context, in QuoteInput) (*dto.QuoteResponse, error) {
	cmd := quoteCmd{input: in, reply: make(chan quoteResult, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		return r.quote, r.err
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run drives the session until ctx is cancelled or the server reports a
// terminal status. No state changes happen after it returns.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	snap := s.initial
	state := NewState(snap)
	s.publish(snap, state)
	if state.ConfirmedTerminal() {
		return nil
	}

	poll := time.NewTicker(s.opts.PollInterval)
	defer poll.Stop()
	countdown := time.NewTicker(s.opts.CountdownTick)
	defer countdown.Stop()

	// Both are buffered so a late result never blocks its goroutine.
	fetched := make(chan fetchResult, 1)
	quoted := make(chan quoteResult, 1)

	var (
		fetching     bool
		refetch      bool
		pendingReply chan quoteResult
		expiredFor   time.Time
	)

	startFetch := func() {
		if fetching {
			refetch = true
			return
		}
		fetching = true
		go func() {
			got, err := s.api.GetInvoice(ctx, s.invoiceID)
			fetched <- fetchResult{snap: got, err: err}
		}()
	}

	dispatch := func(ev Event) {
		state = Reduce(state, ev)
		s.publish(snap, state)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-poll.C:
			startFetch()

		case r := <-fetched:
			if ctx.Err() != nil {
				return nil
			}
			fetching = false
			if r.err != nil {
				s.log.Debug("tracker: fetch failed", zap.Error(r.err))
			} else {
				snap = *r.snap
				dispatch(InvoiceSynced{Snapshot: snap})
			}
			if state.ConfirmedTerminal() && pendingReply == nil {
				return nil
			}
			if refetch {
				refetch = false
				startFetch()
			}

		case cmd := <-s.cmds:
			if pendingReply != nil {
				cmd.reply <- quoteResult{err: ErrQuotePending}
				continue
			}
			pendingReply = cmd.reply
			dispatch(QuoteRequested{})
			go func(in QuoteInput) {
				q, err := s.api.RequestQuote(ctx, s.invoiceID, in)
				quoted <- quoteResult{input: in, quote: q, err: err}
			}(cmd.input)

		case r := <-quoted:
			if ctx.Err() != nil {
				return nil
			}
			if r.err != nil {
				dispatch(quoteFailure(r.err))
			} else {
				dispatch(QuoteSucceeded{PayToken: r.input.PayToken, PayNetwork: r.input.PayNetwork, Quote: *r.quote})
			}
			pendingReply <- r
			pendingReply = nil
			if state.ConfirmedTerminal() && !fetching {
				return nil
			}
			if r.err == nil {
				startFetch()
			}

		case <-countdown.C:
			if state.Phase() != PhaseAwaitingDeposit {
				continue
			}
			deadline := s.View().Instructions.ExpiresAt
			if deadline == nil || deadline.Equal(expiredFor) || s.now().Before(*deadline) {
				continue
			}
			expiredFor = *deadline
			s.log.Info("tracker: quote deadline passed", zap.Time("expires_at", expiredFor))
			dispatch(CountdownExpired{})
		}
	}
}

func (s *Session) publish(snap dto.InvoiceSnapshot, state State) {
	v := BuildView(snap, state)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(v)
	}
}
