package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/assets"
	"github.com/weave-cash/backend/internal/config"
	"github.com/weave-cash/backend/internal/events"
	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/oneclick"
)

type QuoteInput struct {
	PayToken      string
	PayNetwork    string
	RefundAddress string
}

type Quote struct {
	DepositAddress string
	DepositMemo    *string
	AmountIn       string
	AmountOut      string
	TimeEstimate   *int
	ExpiresAt      time.Time
}

type QuoteService struct {
	store     InvoiceStore
	provider  SwapProvider
	addresses assets.AddressValidator
	notify    notifier
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewQuoteService(
	store InvoiceStore,
	provider SwapProvider,
	addresses assets.AddressValidator,
	audit AuditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *QuoteService {
	return &QuoteService{
		store:     store,
		provider:  provider,
		addresses: addresses,
		notify:    notifier{audit: audit, publisher: publisher, log: log},
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

func (s *QuoteService) validate(in QuoteInput) error {
	ve := &ValidationError{}
	switch {
	case !assets.IsSupportedToken(in.PayToken):
		ve.Add("payToken", fmt.Sprintf("%s is not a supported token", in.PayToken))
	case !assets.IsValidPair(in.PayToken, in.PayNetwork):
		ve.Add("payNetwork", fmt.Sprintf("%s is not a valid network for %s", in.PayNetwork, in.PayToken))
	}

	switch {
	case in.RefundAddress == "":
		ve.Add("refundAddress", "Refund address is required")
	case !s.addresses.IsValidAddress(in.PayNetwork, in.RefundAddress):
		ve.Add("refundAddress", fmt.Sprintf("Invalid refund address for %s", in.PayNetwork))
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// IssueQuote obtains deposit instructions for paying invoice id with the
// given asset and commits them with a guarded PENDING -> AWAITING_DEPOSIT
// write. Of two concurrent requests at most one succeeds; the other gets
// ErrInvoiceStateChanged.
func (s *QuoteService) IssueQuote(ctx context.Context, id uuid.UUID, in QuoteInput) (*Quote, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	inv, err := s.store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", id, err)
	}
	if inv.Status != models.InvoiceStatusPending {
		return nil, ErrNotAwaitingQuote
	}

	req, err := s.buildRequest(inv, in)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.Quote(ctx, req)
	if err != nil {
		s.log.Warn("quote request failed", zap.String("invoice_id", id.String()), zap.Error(err))
		return nil, &UpstreamError{Op: "quote", Err: err}
	}

	quotedAt := s.now()
	expiresAt := req.Deadline
	if resp.Quote.Deadline != nil && !resp.Quote.Deadline.IsZero() {
		expiresAt = *resp.Quote.Deadline
	}

	applied, err := s.store.ApplyQuote(ctx, id, models.QuoteTerms{
		PayToken:       in.PayToken,
		PayNetwork:     in.PayNetwork,
		DepositAddress: resp.Quote.DepositAddress,
		DepositMemo:    resp.Quote.DepositMemo,
		QuotedAt:       quotedAt,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("persist quote for %s: %w", id, err)
	}
	if !applied {
		return nil, ErrInvoiceStateChanged
	}

	s.notify.statusChanged(ctx, statusChange{
		invoiceID: id,
		from:      models.InvoiceStatusPending,
		to:        models.InvoiceStatusAwaitingDeposit,
		actorType: models.ActorBuyer,
		action:    models.AuditInvoiceQuoted,
		meta: map[string]any{
			"pay_token":   in.PayToken,
			"pay_network": in.PayNetwork,
			"amount_in":   resp.Quote.AmountInFormatted,
		},
	})

	return &Quote{
		DepositAddress: resp.Quote.DepositAddress,
		DepositMemo:    resp.Quote.DepositMemo,
		AmountIn:       resp.Quote.AmountInFormatted,
		AmountOut:      resp.Quote.AmountOutFormatted,
		TimeEstimate:   resp.Quote.TimeEstimate,
		ExpiresAt:      expiresAt,
	}, nil
}

func (s *QuoteService) buildRequest(inv *models.Invoice, in QuoteInput) (oneclick.QuoteRequest, error) {
	originAsset, err := assets.AssetID(in.PayToken, in.PayNetwork)
	if err != nil {
		return oneclick.QuoteRequest{}, err
	}
	destinationAsset, err := assets.AssetID(inv.ReceiveToken, inv.ReceiveNetwork)
	if err != nil {
		return oneclick.QuoteRequest{}, fmt.Errorf("invoice %s receive asset: %w", inv.ID, err)
	}
	amount, err := assets.ToSmallestUnits(inv.Amount, inv.ReceiveToken)
	if err != nil {
		return oneclick.QuoteRequest{}, fmt.Errorf("invoice %s amount: %w", inv.ID, err)
	}

	return oneclick.QuoteRequest{
		SwapType:          oneclick.SwapTypeExactOutput,
		SlippageTolerance: s.cfg.QuoteSlippageBPS,
		OriginAsset:       originAsset,
		DepositType:       oneclick.DepositTypeOriginChain,
		DestinationAsset:  destinationAsset,
		Amount:            amount,
		RefundTo:          in.RefundAddress,
		RefundType:        oneclick.RefundTypeOriginChain,
		Recipient:         inv.WalletAddress,
		RecipientType:     oneclick.RecipientTypeDestinationChain,
		Deadline:          s.now().Add(s.cfg.QuoteValidity).UTC(),
		Referral:          s.cfg.OneClickReferral,
	}, nil
}
