package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor types
const (
	ActorSystem   = "system"
	ActorWorker   = "worker"
	ActorBuyer    = "buyer"
	ActorMerchant = "merchant"
)

// Audit actions
const (
	AuditInvoiceCreated       = "invoice.created"
	AuditInvoiceQuoted        = "invoice.quoted"
	AuditInvoiceStatusChanged = "invoice.status_changed"
	AuditInvoiceExpired       = "invoice.expired"
)

const EntityInvoice = "invoice"

type AuditLog struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	ActorType  string         `json:"actor_type"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *uuid.UUID     `json:"entity_id,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
