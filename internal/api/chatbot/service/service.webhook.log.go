package chatbotsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "smart_travel/internal/api/base/service"
	chatbotmodels "smart_travel/internal/api/chatbot/models"
	"smart_travel/internal/common"
	"smart_travel/internal/global"
)

// WebhookLogService là service cho collection webhook_logs
type WebhookLogService struct {
	*basesvc.BaseServiceMongoImpl[chatbotmodels.WebhookLog]
}

// NewWebhookLogService tạo mới WebhookLogService
func NewWebhookLogService() (*WebhookLogService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WebhookLogs)
	if !exist {
		return nil, fmt.Errorf("failed to get webhook_logs collection: %v", common.ErrNotFound)
	}
	return &WebhookLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[chatbotmodels.WebhookLog](collection),
	}, nil
}

// CreateWebhookLog ghi log webhook thô, gọi TRƯỚC khi parse payload
func (s *WebhookLogService) CreateWebhookLog(ctx context.Context, rawBody string, parseErr error) (*chatbotmodels.WebhookLog, error) {
	log := chatbotmodels.WebhookLog{
		Source:     "chatbot",
		RawBody:    rawBody,
		ReceivedAt: time.Now().UnixMilli(),
	}
	if parseErr != nil {
		log.ParseError = parseErr.Error()
	}

	created, err := s.InsertOne(ctx, log)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProcessedStatus cập nhật kết quả xử lý nghiệp vụ của một webhook log
func (s *WebhookLogService) UpdateProcessedStatus(ctx context.Context, logID primitive.ObjectID, processed bool, errorMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"processed":    processed,
			"processError": errorMsg,
			"updatedAt":    time.Now().UnixMilli(),
		},
	}

	_, err := s.Collection().UpdateOne(ctx, bson.M{"_id": logID}, update)
	if err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}
