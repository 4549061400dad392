package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weave-cash/backend/internal/models"
)

const invoiceColumns = `
	id, merchant_id, status, receive_token, receive_network, amount::text, wallet_address,
	description, buyer_name, buyer_email, buyer_address,
	pay_token, pay_network, deposit_address, deposit_memo, quoted_at, expires_at,
	paid_at, created_at, updated_at`

type InvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

type InvoiceFilter struct {
	MerchantID *uuid.UUID
	Status     *models.InvoiceStatus
	Limit      int
	Offset     int
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var status string
	err := row.Scan(&inv.ID, &inv.MerchantID, &status, &inv.ReceiveToken, &inv.ReceiveNetwork, &inv.Amount, &inv.WalletAddress,
		&inv.Description, &inv.BuyerName, &inv.BuyerEmail, &inv.BuyerAddress,
		&inv.PayToken, &inv.PayNetwork, &inv.DepositAddress, &inv.DepositMemo, &inv.QuotedAt, &inv.ExpiresAt,
		&inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Status = models.InvoiceStatus(status)
	return &inv, nil
}

func collectInvoices(rows pgx.Rows) ([]models.Invoice, error) {
	defer rows.Close()
	var out []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	var status string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (merchant_id, receive_token, receive_network, amount, wallet_address,
		                      description, buyer_name, buyer_email, buyer_address)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
		RETURNING id, status, created_at, updated_at
	`, inv.MerchantID, inv.ReceiveToken, inv.ReceiveNetwork, inv.Amount, inv.WalletAddress,
		inv.Description, inv.BuyerName, inv.BuyerEmail, inv.BuyerAddress,
	).Scan(&inv.ID, &status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return err
	}
	inv.Status = models.InvoiceStatus(status)
	return nil
}

// GetByID returns pgx.ErrNoRows when the invoice does not exist.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
}

func (r *InvoiceRepo) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.MerchantID != nil {
		where = append(where, fmt.Sprintf("merchant_id = $%d", argIdx))
		args = append(args, *f.MerchantID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*f.Status))
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListRefreshable returns invoices the provider can still move, least
// recently touched first.
func (r *InvoiceRepo) ListRefreshable(ctx context.Context, limit int) ([]models.Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN ('AWAITING_DEPOSIT', 'PROCESSING') AND deposit_address IS NOT NULL
		ORDER BY updated_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListExpirable returns AWAITING_DEPOSIT invoices whose quote deadline is
// before cutoff.
func (r *InvoiceRepo) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]models.Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status = 'AWAITING_DEPOSIT' AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// TransitionStatus moves id from one status to another only if it is still
// in from. paidAt is written once, and only when moving to COMPLETED.
// Reports false when another writer got there first.
func (r *InvoiceRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvoiceStatus, paidAt time.Time) (bool, error) {
	query := `
		UPDATE invoices SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`
	args := []any{id, string(from), string(to)}
	if to == models.InvoiceStatusCompleted {
		query = `
			UPDATE invoices SET status = $3, paid_at = COALESCE(paid_at, $4), updated_at = now()
			WHERE id = $1 AND status = $2
		`
		args = append(args, paidAt)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyQuote persists accepted quote terms and moves the invoice to
// AWAITING_DEPOSIT, provided it is still PENDING.
func (r *InvoiceRepo) ApplyQuote(ctx context.Context, id uuid.UUID, t models.QuoteTerms) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = 'AWAITING_DEPOSIT', pay_token = $2, pay_network = $3,
		    deposit_address = $4, deposit_memo = $5, quoted_at = $6, expires_at = $7,
		    updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
	`, id, t.PayToken, t.PayNetwork, t.DepositAddress, t.DepositMemo, t.QuotedAt, t.ExpiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
