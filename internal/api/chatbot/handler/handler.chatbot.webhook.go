// Package chatbothdl - handler nhận webhook từ chat-bot và tra cứu tin nhắn.
package chatbothdl

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"

	basehdl "smart_travel/internal/api/base/handler"
	chatbotdto "smart_travel/internal/api/chatbot/dto"
	chatbotmodels "smart_travel/internal/api/chatbot/models"
	chatbotsvc "smart_travel/internal/api/chatbot/service"
	visitormodels "smart_travel/internal/api/visitor/models"
	visitorsvc "smart_travel/internal/api/visitor/service"
	"smart_travel/internal/common"
	"smart_travel/internal/global"
	"smart_travel/internal/ledger"
	"smart_travel/internal/logger"
)

// ChatbotWebhookHandler xử lý webhook từ chat-bot
type ChatbotWebhookHandler struct {
	chatMessageService *chatbotsvc.ChatMessageService
	webhookLogService  *chatbotsvc.WebhookLogService
	visitorService     *visitorsvc.VisitorService
}

// NewChatbotWebhookHandler tạo mới ChatbotWebhookHandler
func NewChatbotWebhookHandler() (*ChatbotWebhookHandler, error) {
	chatMessageService, err := chatbotsvc.NewChatMessageService()
	if err != nil {
		return nil, fmt.Errorf("failed to create chat message service: %v", err)
	}
	webhookLogService, err := chatbotsvc.NewWebhookLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log service: %v", err)
	}
	return &ChatbotWebhookHandler{
		chatMessageService: chatMessageService,
		webhookLogService:  webhookLogService,
		visitorService:     visitorsvc.NewVisitorService(),
	}, nil
}

// HandleWebhook nhận một lượt hội thoại từ chat-bot. Thứ tự xử lý:
//  1. luôn lưu payload thô vào webhook_logs, kể cả khi parse lỗi
//  2. lưu tin nhắn vào chat_messages
//  3. upsert visitor trong MySQL
//  4. mirror sang sổ tư vấn (best-effort: fail chỉ log warning,
//     không bao giờ fail request - ghi sổ là side channel)
func (h *ChatbotWebhookHandler) HandleWebhook(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		log := logger.GetAppLogger()
		ctx := c.Context()
		rawBody := string(c.Body())

		var req chatbotdto.ChatbotWebhookRequest
		parseErr := c.Bind().Body(&req)
		if parseErr == nil {
			parseErr = global.Validate.Struct(&req)
		}

		webhookLog, logErr := h.webhookLogService.CreateWebhookLog(ctx, rawBody, parseErr)
		if logErr != nil {
			log.WithError(logErr).Warn("Không thể lưu webhook log")
		}

		if parseErr != nil {
			// Payload hỏng: đã có log thô để điều tra, trả 200 cho bot khỏi retry
			return basehdl.JSONResponse(c, common.StatusOK, fiber.Map{
				"code":    common.StatusOK,
				"message": "Webhook đã được nhận và lưu log",
				"status":  "success",
			})
		}

		processErr := h.processTurn(ctx, &req)

		if webhookLog != nil {
			errorMsg := ""
			if processErr != nil {
				errorMsg = processErr.Error()
			}
			if err := h.webhookLogService.UpdateProcessedStatus(ctx, webhookLog.ID, processErr == nil, errorMsg); err != nil {
				log.WithError(err).Warn("Không thể cập nhật trạng thái webhook log")
			}
		}

		basehdl.HandleResponse(c, fiber.Map{"processed": processErr == nil}, processErr)
		return nil
	})
}

// processTurn xử lý nghiệp vụ của một lượt hội thoại đã parse thành công
func (h *ChatbotWebhookHandler) processTurn(ctx context.Context, req *chatbotdto.ChatbotWebhookRequest) error {
	log := logger.GetAppLogger()

	_, err := h.chatMessageService.SaveMessage(ctx, chatbotmodels.ChatMessage{
		StableID:      req.StableID,
		SessionID:     req.SessionID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Direction:     req.Message.Direction,
		Content:       req.Message.Content,
		SentAt:        req.Message.SentAt,
	})
	if err != nil {
		return fmt.Errorf("lưu tin nhắn: %w", err)
	}

	if err := h.visitorService.Upsert(ctx, h.buildVisitor(req)); err != nil {
		return fmt.Errorf("upsert visitor: %w", err)
	}

	// Mirror sang sổ tư vấn chỉ khi bot trích xuất được thông tin mới.
	// Upsert trả false không phải lỗi của request này.
	if req.Consultation != nil {
		if ok := global.Ledger.Upsert(ctx, h.buildLedgerRecord(req)); !ok {
			log.WithFields(map[string]interface{}{
				"stable_id": req.StableID,
				"phone":     ledger.NormalizePhone(req.CustomerPhone),
			}).Warn("Mirror sang sổ tư vấn thất bại, dữ liệu chat vẫn được lưu")
		}
	}

	return nil
}

// buildVisitor tạo bản ghi visitor từ payload webhook
func (h *ChatbotWebhookHandler) buildVisitor(req *chatbotdto.ChatbotWebhookRequest) visitormodels.Visitor {
	v := visitormodels.Visitor{
		StableID:      req.StableID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	}
	if consult := req.Consultation; consult != nil {
		v.Destination = consult.Destination
		v.ProductName = consult.ProductName
		v.DepartureDate = consult.DepartureDate
		v.URL = consult.ProductURL
		v.Status = consult.Status
		v.Summary = consult.Summary
	}
	return v
}

// buildLedgerRecord tạo record sổ tư vấn từ payload webhook
func (h *ChatbotWebhookHandler) buildLedgerRecord(req *chatbotdto.ChatbotWebhookRequest) ledger.ConsultationRecord {
	consult := req.Consultation
	return ledger.ConsultationRecord{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Destination:   consult.Destination,
		DepartureDate: consult.DepartureDate,
		ReturnDate:    consult.ReturnDate,
		Duration:      consult.Duration,
		ProductName:   consult.ProductName,
		ProductURL:    consult.ProductURL,
		Summary:       consult.Summary,
		Status:        consult.Status,
		SourceChannel: ledger.DefaultSourceChannel,
	}
}

// ListMessages trả về lịch sử tin nhắn của một visitor cho dashboard
func (h *ChatbotWebhookHandler) ListMessages(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var query chatbotdto.ChatMessageListQuery
		if err := c.Bind().Query(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		if err := global.Validate.Struct(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Thiếu stableId của visitor",
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		result, err := h.chatMessageService.ListByVisitor(c.Context(), query.StableID, query.SessionID, query.Page, query.Limit)
		basehdl.HandleResponse(c, result, err)
		return nil
	})
}
