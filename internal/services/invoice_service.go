package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/assets"
	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/oneclick"
	"github.com/weave-cash/backend/internal/repositories"
)

type CreateInvoiceInput struct {
	ReceiveToken   string
	ReceiveNetwork string
	Amount         string
	WalletAddress  string
	Description    *string
	BuyerName      *string
	BuyerEmail     *string
	BuyerAddress   *string
}

type InvoiceService struct {
	store      InvoiceStore
	audit      AuditLogger
	reconciler *Reconciler
	addresses  assets.AddressValidator
	log        *zap.Logger
}

func NewInvoiceService(
	store InvoiceStore,
	audit AuditLogger,
	reconciler *Reconciler,
	addresses assets.AddressValidator,
	log *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		store:      store,
		audit:      audit,
		reconciler: reconciler,
		addresses:  addresses,
		log:        log,
	}
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, merchantID *uuid.UUID, in CreateInvoiceInput) (*models.Invoice, error) {
	ve := &ValidationError{}
	switch {
	case !assets.IsSupportedToken(in.ReceiveToken):
		ve.Add("receiveToken", fmt.Sprintf("%s is not a supported token", in.ReceiveToken))
	case !assets.IsValidPair(in.ReceiveToken, in.ReceiveNetwork):
		ve.Add("receiveNetwork", fmt.Sprintf("%s is not a valid network for %s", in.ReceiveNetwork, in.ReceiveToken))
	case !s.addresses.IsValidAddress(in.ReceiveNetwork, in.WalletAddress):
		ve.Add("walletAddress", fmt.Sprintf("Invalid wallet address for %s", in.ReceiveNetwork))
	}
	amount, err := assets.ParseAmount(in.Amount)
	if err != nil {
		ve.Add("amount", "Must be a positive number")
	} else if _, err := assets.ToSmallestUnits(in.Amount, in.ReceiveToken); err != nil && assets.IsSupportedToken(in.ReceiveToken) {
		ve.Add("amount", fmt.Sprintf("Amount is below the smallest unit of %s", in.ReceiveToken))
	}
	if ve.HasErrors() {
		return nil, ve
	}

	inv := &models.Invoice{
		MerchantID:     merchantID,
		ReceiveToken:   in.ReceiveToken,
		ReceiveNetwork: in.ReceiveNetwork,
		Amount:         amount.String(),
		WalletAddress:  strings.TrimSpace(in.WalletAddress),
		Description:    nonEmpty(in.Description),
		BuyerName:      nonEmpty(in.BuyerName),
		BuyerEmail:     nonEmpty(in.BuyerEmail),
		BuyerAddress:   nonEmpty(in.BuyerAddress),
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	actor := models.ActorSystem
	if merchantID != nil {
		actor = models.ActorMerchant
	}
	if err := s.audit.Log(ctx, models.AuditLog{
		ActorID:    merchantID,
		ActorType:  actor,
		Action:     models.AuditInvoiceCreated,
		EntityType: models.EntityInvoice,
		EntityID:   &inv.ID,
		Meta:       map[string]any{"amount": inv.Amount, "receive_token": inv.ReceiveToken, "receive_network": inv.ReceiveNetwork},
	}); err != nil {
		s.log.Warn("audit log write failed", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("receive_token", inv.ReceiveToken),
		zap.String("amount", inv.Amount),
	)
	return inv, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	return inv, err
}

func (s *InvoiceService) ListInvoices(ctx context.Context, merchantID uuid.UUID, status *models.InvoiceStatus, limit, offset int) ([]models.Invoice, error) {
	if status != nil && !status.Valid() {
		ve := &ValidationError{}
		ve.Add("status", fmt.Sprintf("%s is not a valid status", *status))
		return nil, ve
	}
	return s.store.List(ctx, repositories.InvoiceFilter{
		MerchantID: &merchantID,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
}

// GetSnapshot reconciles id with the provider and returns the normalized
// read model.
func (s *InvoiceService) GetSnapshot(ctx context.Context, id uuid.UUID) (dto.InvoiceSnapshot, error) {
	rec, err := s.reconciler.Reconcile(ctx, id)
	if err != nil {
		return dto.InvoiceSnapshot{}, err
	}
	return BuildSnapshot(rec.Invoice, rec.AmountIn), nil
}

// GetStatus is the compact polling view, including the raw provider code.
func (s *InvoiceService) GetStatus(ctx context.Context, id uuid.UUID) (dto.InvoiceStatusResponse, error) {
	rec, err := s.reconciler.Reconcile(ctx, id)
	if err != nil {
		return dto.InvoiceStatusResponse{}, err
	}
	inv := rec.Invoice
	out := dto.InvoiceStatusResponse{
		Status:         string(inv.Status),
		DepositAddress: inv.DepositAddress,
		DepositMemo:    inv.DepositMemo,
		PaidAt:         inv.PaidAt,
		ExpiresAt:      inv.ExpiresAt,
		PayToken:       inv.PayToken,
		AmountIn:       rec.AmountIn,
	}
	if rec.ProviderStatus != "" {
		code := rec.ProviderStatus
		out.SDKStatus = &code
		out.DepositDetected = oneclick.IsDepositDetected(code)
	}
	return out, nil
}

// ListEvents returns the audit trail of an invoice owned by merchantID.
// Invoices of other merchants are reported as not found.
func (s *InvoiceService) ListEvents(ctx context.Context, merchantID, id uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.MerchantID == nil || *inv.MerchantID != merchantID {
		return nil, ErrInvoiceNotFound
	}
	return s.audit.ListByEntity(ctx, models.EntityInvoice, id, limit, offset)
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
