package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/middleware"
	"github.com/weave-cash/backend/internal/services"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID := middleware.GetRequestID(c)

	var ve *services.ValidationError
	var conflict *services.StateConflictError
	var upstream *services.UpstreamError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationErrorResponse{Error: ve.Fields, RequestID: reqID})
	case errors.Is(err, services.ErrInvoiceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Invoice not found", RequestID: reqID})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: conflict.Reason, RequestID: reqID})
	case errors.As(err, &upstream):
		log.Warn("upstream failure", zap.String("request_id", reqID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "Failed to get swap quote", RequestID: reqID})
	default:
		log.Error("request failed", zap.String("request_id", reqID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error", RequestID: reqID})
	}
}
