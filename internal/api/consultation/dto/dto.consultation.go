// Package dto chứa các DTO cho domain Consultation.
package dto

// ConsultationListQuery là query string cho endpoint liệt kê tư vấn
type ConsultationListQuery struct {
	Refresh bool   `query:"refresh"`
	Status  string `query:"status" validate:"omitempty,consult_status"`
	Q       string `query:"q"`
	Limit   int    `query:"limit"`
}

// ConsultationHistoryQuery là query string cho endpoint lịch sử tư vấn
type ConsultationHistoryQuery struct {
	Phone string `query:"phone" validate:"required"`
}

// ConsultationUpsertRequest là body của POST /consultations
type ConsultationUpsertRequest struct {
	CustomerName  string `json:"customerName" validate:"required,no_xss"`
	CustomerPhone string `json:"customerPhone"`
	Destination   string `json:"destination" validate:"omitempty,no_xss"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate"`
	Duration      string `json:"duration"`
	ProductName   string `json:"productName" validate:"omitempty,no_xss"`
	ProductURL    string `json:"productUrl" validate:"omitempty,url"`
	Summary       string `json:"summary" validate:"omitempty,no_xss"`
	Status        string `json:"status" validate:"omitempty,consult_status"`
	NextFollowup  string `json:"nextFollowupDate"`
	BalanceDue    string `json:"balanceDueDate"`
	NoticeDate    string `json:"noticeDate"`
	SourceChannel string `json:"sourceChannel"`

	// StableID của visitor tương ứng, nếu biết - dùng để mirror sang visitor store
	StableID string `json:"stableId"`
}

// ConsultationStatusRequest là body của PATCH /consultations/status
type ConsultationStatusRequest struct {
	// Partition thường là YYYY-MM nhưng vẫn có thể là tab legacy chưa migrate
	Partition string `json:"partition" validate:"required"`
	RowIndex  int    `json:"rowIndex" validate:"required,min=2"`
	Status    string `json:"status" validate:"required,consult_status"`
}
