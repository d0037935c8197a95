// Package router đăng ký các route thuộc domain Chatbot: webhook intake (shared
// secret) và tra cứu tin nhắn (JWT).
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	chatbothdl "smart_travel/internal/api/chatbot/handler"
	"smart_travel/internal/api/middleware"
	apirouter "smart_travel/internal/api/router"
)

// Register đăng ký tất cả route chatbot lên v1
func Register(v1 fiber.Router, r *apirouter.Router) error {
	handler, err := chatbothdl.NewChatbotWebhookHandler()
	if err != nil {
		return fmt.Errorf("create chatbot webhook handler: %w", err)
	}

	webhookSecretMiddleware := middleware.WebhookSecretMiddleware()
	authMiddleware := middleware.AuthMiddleware()

	// Mỗi route một group prefix riêng: middleware đăng ký qua .Use() áp dụng
	// theo prefix, webhook (shared secret) không được dính JWT của dashboard.
	// Path rỗng để route khớp đúng prefix không có slash cuối (StrictRouting).
	apirouter.RegisterRouteWithMiddleware(v1, "/chatbot/webhook", "POST", "",
		[]fiber.Handler{webhookSecretMiddleware}, handler.HandleWebhook)
	apirouter.RegisterRouteWithMiddleware(v1, "/chatbot/messages", "GET", "",
		[]fiber.Handler{authMiddleware}, handler.ListMessages)

	return nil
}
