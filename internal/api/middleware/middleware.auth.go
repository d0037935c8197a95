package middleware

import (
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v3"

	"smart_travel/internal/common"
	"smart_travel/internal/global"
)

// TokenClaims là payload của JWT phát cho nhân viên tư vấn
type TokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// AuthMiddleware xác thực JWT từ header Authorization: Bearer <token>.
// Token hợp lệ thì gắn userId/email vào Locals cho handler phía sau.
func AuthMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		claims := &TokenClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, common.ErrTokenInvalid
			}
			return []byte(global.ServerConfig.JwtSecret), nil
		})
		if err != nil {
			if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
				HandleErrorResponse(c, common.ErrTokenExpired)
				return nil
			}
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}
		if !token.Valid {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		c.Locals("userId", claims.UserID)
		c.Locals("email", claims.Email)
		return c.Next()
	}
}

// WebhookSecretMiddleware xác thực webhook từ chat-bot bằng shared secret
// trong header X-Webhook-Secret. Không cấu hình secret thì cho qua
// (môi trường dev chạy chat-bot local).
func WebhookSecretMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		secret := global.ServerConfig.ChatbotWebhookSecret
		if secret == "" {
			return c.Next()
		}
		if c.Get("X-Webhook-Secret") != secret {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}
		return c.Next()
	}
}
