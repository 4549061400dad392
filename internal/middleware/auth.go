package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/auth"
	"github.com/weave-cash/backend/internal/http/dto"
)

const CtxMerchantID = "merchant_id"

// AuthMiddleware requires a merchant bearer token signed with secret.
func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(secret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Locals(CtxMerchantID, claims.MerchantID)
		return c.Next()
	}
}

func GetMerchantID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxMerchantID).(uuid.UUID)
	return id
}
