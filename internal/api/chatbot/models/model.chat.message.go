// Package models chứa model cho domain Chatbot (tin nhắn chat, log webhook).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage là một tin nhắn trong phiên chat giữa khách và chat-bot
type ChatMessage struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`                   // ID của document
	StableID      string             `json:"stableId" bson:"stableId" index:"single:1"`           // Stable id của visitor do chat-bot cấp
	SessionID     string             `json:"sessionId" bson:"sessionId" index:"single:1"`         // ID phiên chat
	CustomerName  string             `json:"customerName" bson:"customerName"`                    // Tên khách tại thời điểm nhắn
	CustomerPhone string             `json:"customerPhone" bson:"customerPhone" index:"single:1"` // SĐT khách (đã chuẩn hóa)
	Direction     string             `json:"direction" bson:"direction"`                          // in (khách gửi) / out (bot trả lời)
	Content       string             `json:"content" bson:"content"`                              // Nội dung tin nhắn
	SentAt        int64              `json:"sentAt" bson:"sentAt" index:"single:-1"`              // Thời điểm gửi (unix milli)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
