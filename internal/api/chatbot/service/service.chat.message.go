// Package chatbotsvc chứa service cho domain Chatbot.
package chatbotsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "smart_travel/internal/api/base/models"
	basesvc "smart_travel/internal/api/base/service"
	chatbotmodels "smart_travel/internal/api/chatbot/models"
	"smart_travel/internal/common"
	"smart_travel/internal/global"
	"smart_travel/internal/ledger"
)

// ChatMessageService là service cho collection chat_messages
type ChatMessageService struct {
	*basesvc.BaseServiceMongoImpl[chatbotmodels.ChatMessage]
}

// NewChatMessageService tạo mới ChatMessageService
func NewChatMessageService() (*ChatMessageService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.ChatMessages)
	if !exist {
		return nil, fmt.Errorf("failed to get chat_messages collection: %v", common.ErrNotFound)
	}
	return &ChatMessageService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[chatbotmodels.ChatMessage](collection),
	}, nil
}

// SaveMessage lưu một tin nhắn, chuẩn hóa phone và điền SentAt nếu bot không gửi
func (s *ChatMessageService) SaveMessage(ctx context.Context, msg chatbotmodels.ChatMessage) (chatbotmodels.ChatMessage, error) {
	msg.CustomerPhone = ledger.NormalizePhone(msg.CustomerPhone)
	if msg.SentAt == 0 {
		msg.SentAt = time.Now().UnixMilli()
	}
	return s.InsertOne(ctx, msg)
}

// ListByVisitor trả về tin nhắn của một visitor, mới nhất trước, có phân trang
func (s *ChatMessageService) ListByVisitor(ctx context.Context, stableID string, sessionID string, page, limit int64) (*basemodels.PaginateResult[chatbotmodels.ChatMessage], error) {
	filter := bson.M{"stableId": stableID}
	if sessionID != "" {
		filter["sessionId"] = sessionID
	}

	opts := options.Find().SetSort(bson.D{{Key: "sentAt", Value: -1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}
