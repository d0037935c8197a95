package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookLog lưu payload thô của mọi webhook nhận từ chat-bot.
// Luôn được ghi trước khi parse để không mất dấu vết khi payload hỏng.
type WebhookLog struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`          // ID của document
	Source     string             `json:"source" bson:"source" index:"single:1"`      // Nguồn webhook (chatbot)
	RawBody    string             `json:"rawBody" bson:"rawBody"`                     // Payload thô chưa parse
	ParseError string             `json:"parseError,omitempty" bson:"parseError"`     // Lỗi parse nếu có
	Processed  bool               `json:"processed" bson:"processed"`                 // Đã xử lý nghiệp vụ xong chưa
	ProcError  string             `json:"processError,omitempty" bson:"processError"` // Lỗi xử lý nghiệp vụ nếu có
	ReceivedAt int64              `json:"receivedAt" bson:"receivedAt" index:"single:-1"` // Thời điểm nhận (unix milli)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
