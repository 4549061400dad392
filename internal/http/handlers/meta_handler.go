package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/weave-cash/backend/internal/assets"
	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaToken struct {
	Symbol   string   `json:"symbol"`
	Networks []string `json:"networks"`
}

type MetaStatus struct {
	Status     models.InvoiceStatus `json:"status"`
	IsTerminal bool                 `json:"isTerminal"`
	models.Presentation
}

var allStatuses = []models.InvoiceStatus{
	models.InvoiceStatusPending,
	models.InvoiceStatusAwaitingDeposit,
	models.InvoiceStatusProcessing,
	models.InvoiceStatusCompleted,
	models.InvoiceStatusFailed,
	models.InvoiceStatusRefunded,
	models.InvoiceStatusExpired,
}

// GetTokens lists payable tokens and the networks each is accepted on.
func (h *MetaHandler) GetTokens(c *fiber.Ctx) error {
	tokens := assets.Tokens()
	out := make([]MetaToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, MetaToken{Symbol: t, Networks: assets.TokenNetworks[t]})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}

func (h *MetaHandler) GetStatuses(c *fiber.Ctx) error {
	out := make([]MetaStatus, 0, len(allStatuses))
	for _, s := range allStatuses {
		out = append(out, MetaStatus{Status: s, IsTerminal: s.IsTerminal(), Presentation: models.PresentationFor(s)})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}
