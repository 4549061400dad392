package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/oneclick"
	"github.com/weave-cash/backend/internal/repositories"
)

// InvoiceStore is implemented by repositories.InvoiceRepo. GetByID returns
// pgx.ErrNoRows for a missing invoice.
type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, f repositories.InvoiceFilter) ([]models.Invoice, error)
	ListRefreshable(ctx context.Context, limit int) ([]models.Invoice, error)
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]models.Invoice, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvoiceStatus, paidAt time.Time) (bool, error)
	ApplyQuote(ctx context.Context, id uuid.UUID, terms models.QuoteTerms) (bool, error)
}

// SwapProvider is implemented by oneclick.Client.
type SwapProvider interface {
	Quote(ctx context.Context, req oneclick.QuoteRequest) (*oneclick.QuoteResponse, error)
	ExecutionStatus(ctx context.Context, depositAddress string, depositMemo *string) (*oneclick.StatusResponse, error)
}

// AuditLogger is implemented by repositories.AuditRepo.
type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

var (
	_ InvoiceStore = (*repositories.InvoiceRepo)(nil)
	_ AuditLogger  = (*repositories.AuditRepo)(nil)
	_ SwapProvider = (*oneclick.Client)(nil)
)
