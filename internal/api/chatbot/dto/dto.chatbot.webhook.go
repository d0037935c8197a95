// Package dto chứa các DTO cho domain Chatbot.
package dto

// ChatbotWebhookRequest là payload chat-bot gửi sau mỗi lượt hội thoại:
// tin nhắn vừa trao đổi kèm các trường tư vấn bot đã trích xuất được.
type ChatbotWebhookRequest struct {
	StableID      string `json:"stableId" validate:"required"`
	SessionID     string `json:"sessionId"`
	CustomerName  string `json:"customerName" validate:"omitempty,no_xss"`
	CustomerPhone string `json:"customerPhone"`

	Message ChatbotMessage `json:"message" validate:"required"`

	// Consultation là các trường tư vấn bot trích xuất được; nil khi lượt
	// hội thoại chưa có thông tin mới
	Consultation *ChatbotConsultation `json:"consultation,omitempty"`
}

// ChatbotMessage là một tin nhắn trong lượt hội thoại
type ChatbotMessage struct {
	Direction string `json:"direction" validate:"required,oneof=in out"`
	Content   string `json:"content" validate:"required"`
	SentAt    int64  `json:"sentAt"`
}

// ChatbotConsultation là thông tin tư vấn bot đã trích xuất
type ChatbotConsultation struct {
	Destination   string `json:"destination" validate:"omitempty,no_xss"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate"`
	Duration      string `json:"duration"`
	ProductName   string `json:"productName" validate:"omitempty,no_xss"`
	ProductURL    string `json:"productUrl" validate:"omitempty,url"`
	Summary       string `json:"summary" validate:"omitempty,no_xss"`
	Status        string `json:"status" validate:"omitempty,consult_status"`
}

// ChatMessageListQuery là query string cho endpoint liệt kê tin nhắn
type ChatMessageListQuery struct {
	StableID  string `query:"stableId" validate:"required"`
	SessionID string `query:"sessionId"`
	Page      int64  `query:"page"`
	Limit     int64  `query:"limit"`
}
