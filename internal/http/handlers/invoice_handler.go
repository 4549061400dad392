package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/middleware"
	"github.com/weave-cash/backend/internal/models"
	"github.com/weave-cash/backend/internal/services"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
	quotes   *services.QuoteService
	validate *validator.Validate
	log      *zap.Logger
}

func NewInvoiceHandler(invoices *services.InvoiceService, quotes *services.QuoteService, log *zap.Logger) *InvoiceHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &InvoiceHandler{invoices: invoices, quotes: quotes, validate: v, log: log}
}

// check runs struct validation and writes a 400 when it fails. It returns
// false when the response has been written.
func (h *InvoiceHandler) check(c *fiber.Ctx, req any) (bool, error) {
	err := h.validate.Struct(req)
	if err == nil {
		return true, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	ve := &services.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return false, respondError(c, h.log, ve)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}

func parseInvoiceID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	var req dto.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if ok, err := h.check(c, req); !ok {
		return err
	}

	merchantID := middleware.GetMerchantID(c)
	inv, err := h.invoices.CreateInvoice(c.Context(), &merchantID, services.CreateInvoiceInput{
		ReceiveToken:   req.ReceiveToken,
		ReceiveNetwork: req.ReceiveNetwork,
		Amount:         req.Amount,
		WalletAddress:  req.WalletAddress,
		Description:    req.Description,
		BuyerName:      req.BuyerName,
		BuyerEmail:     req.BuyerEmail,
		BuyerAddress:   req.BuyerAddress,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: services.BuildSnapshot(inv, nil)})
}

func (h *InvoiceHandler) ListInvoices(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	var status *models.InvoiceStatus
	if s := c.Query("status"); s != "" {
		st := models.InvoiceStatus(strings.ToUpper(s))
		status = &st
	}

	invoices, err := h.invoices.ListInvoices(c.Context(), middleware.GetMerchantID(c), status, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}

	items := make([]dto.InvoiceDetailsWithStatus, 0, len(invoices))
	for i := range invoices {
		snap := services.BuildSnapshot(&invoices[i], nil)
		items = append(items, dto.InvoiceDetailsWithStatus{InvoiceDetails: snap.Invoice, Status: snap.Status})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.InvoiceListResponse{Items: items, Limit: limit, Offset: offset}})
}

func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	id, ok := parseInvoiceID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}

	snap, err := h.invoices.GetSnapshot(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: snap})
}

func (h *InvoiceHandler) GetInvoiceStatus(c *fiber.Ctx) error {
	id, ok := parseInvoiceID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}

	st, err := h.invoices.GetStatus(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: st})
}

func (h *InvoiceHandler) RequestQuote(c *fiber.Ctx) error {
	id, ok := parseInvoiceID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}

	var req dto.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if ok, err := h.check(c, req); !ok {
		return err
	}

	q, err := h.quotes.IssueQuote(c.Context(), id, services.QuoteInput{
		PayToken:      req.PayToken,
		PayNetwork:    req.PayNetwork,
		RefundAddress: strings.TrimSpace(req.RefundAddress),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.QuoteResponse{
		DepositAddress: q.DepositAddress,
		DepositMemo:    q.DepositMemo,
		AmountIn:       q.AmountIn,
		AmountOut:      q.AmountOut,
		TimeEstimate:   q.TimeEstimate,
		ExpiresAt:      q.ExpiresAt,
	}})
}

func (h *InvoiceHandler) GetInvoiceEvents(c *fiber.Ctx) error {
	id, ok := parseInvoiceID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid invoice id"})
	}

	logs, err := h.invoices.ListEvents(c.Context(), middleware.GetMerchantID(c), id, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}

	out := make([]dto.AuditEntryResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.AuditEntryResponse{
			ID:        l.ID.String(),
			ActorType: l.ActorType,
			Action:    l.Action,
			Meta:      l.Meta,
			CreatedAt: l.CreatedAt,
		})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}
