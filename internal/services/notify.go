package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/events"
	"github.com/weave-cash/backend/internal/models"
)

// notifier records a committed status change. Both sinks are best effort:
// the guarded write already happened and is the source of truth.
type notifier struct {
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

type statusChange struct {
	invoiceID uuid.UUID
	from      models.InvoiceStatus
	to        models.InvoiceStatus
	actorType string
	action    string
	meta      map[string]any
}

func (n notifier) statusChanged(ctx context.Context, c statusChange) {
	meta := map[string]any{"old_status": string(c.from), "new_status": string(c.to)}
	for k, v := range c.meta {
		meta[k] = v
	}

	if err := n.audit.Log(ctx, models.AuditLog{
		ActorType:  c.actorType,
		Action:     c.action,
		EntityType: models.EntityInvoice,
		EntityID:   &c.invoiceID,
		Meta:       meta,
	}); err != nil {
		n.log.Warn("audit log write failed", zap.String("invoice_id", c.invoiceID.String()), zap.Error(err))
	}

	payload := map[string]any{"invoice_id": c.invoiceID.String()}
	for k, v := range meta {
		payload[k] = v
	}
	if err := n.publisher.Publish(ctx, events.ChannelInvoice, events.Event{
		Type:    events.EventInvoiceStatusChanged,
		Payload: payload,
	}); err != nil {
		n.log.Warn("status event publish failed", zap.String("invoice_id", c.invoiceID.String()), zap.Error(err))
	}

	n.log.Info("invoice status changed",
		zap.String("invoice_id", c.invoiceID.String()),
		zap.String("from", string(c.from)),
		zap.String("to", string(c.to)),
		zap.String("actor", c.actorType),
	)
}
