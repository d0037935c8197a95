// Package ledger - sổ tư vấn trên Google Sheets: mỗi tháng một tab,
// upsert theo identity (xóa dòng cũ + ghi dòng mới vào tab tháng hiện tại),
// cache đọc 60 giây và merge đối soát với visitor store.
package ledger

import (
	"strings"
	"time"
)

// Các trạng thái tư vấn. needs_admin chỉ dùng ở tầng ứng dụng,
// không nằm trong validation rule của sheet (xem SheetStatusList).
const (
	StatusConsulting = "consulting"
	StatusQuoteGiven = "quote_given"
	StatusConfirmed  = "confirmed"
	StatusPaid       = "paid"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNeedsAdmin = "needs_admin"
)

// SheetStatusList là danh sách trạng thái được enumerate trong data validation
// của cột trạng thái trên sheet. Cố ý không chứa needs_admin.
var SheetStatusList = []string{
	StatusConsulting,
	StatusQuoteGiven,
	StatusConfirmed,
	StatusPaid,
	StatusCompleted,
	StatusCancelled,
}

// DefaultSourceChannel là kênh nguồn mặc định khi record được tạo từ chat-bot
const DefaultSourceChannel = "chat-bot"

// ConsultationRecord là trạng thái tư vấn hiện tại của một khách hàng.
// CreatedAt được set lại thành "now" mỗi lần upsert (vì upsert = xóa + ghi mới).
type ConsultationRecord struct {
	CreatedAt     time.Time `json:"createdAt"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departureDate"`
	ReturnDate    string    `json:"returnDate"`
	Duration      string    `json:"duration"`
	ProductName   string    `json:"productName"`
	ProductURL    string    `json:"productUrl"`
	Summary       string    `json:"summary"`
	Status        string    `json:"status"`
	NextFollowup  string    `json:"nextFollowupDate"`
	BalanceDue    string    `json:"balanceDueDate"`
	NoticeDate    string    `json:"noticeDate"`
	SourceChannel string    `json:"sourceChannel"`

	// Metadata vị trí lưu trữ, không thuộc record logic
	PartitionName string `json:"partitionName,omitempty"` // Tên tab tháng (YYYY-MM)
	RowIndex      int    `json:"rowIndex,omitempty"`      // Vị trí dòng 1-based trong tab (dòng 1 là header)
	PartitionGID  int64  `json:"partitionGid,omitempty"`  // Numeric id của tab, không đổi khi rename
}

// NormalizePhone giữ lại chỉ các chữ số trong số điện thoại để so sánh identity
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsTrivialPhone trả về true nếu phone sau chuẩn hóa quá ngắn để làm identity
// (trống, sentinel "chưa có", hoặc nhập nhầm vài ký tự).
func IsTrivialPhone(phone string) bool {
	return len(NormalizePhone(phone)) <= 5
}

// IdentityKey trả về khóa identity của record: phone chuẩn hóa nếu đủ dài,
// fallback sang tên khi phone trivial.
func (r *ConsultationRecord) IdentityKey() string {
	normalized := NormalizePhone(r.CustomerPhone)
	if len(normalized) > 5 {
		return normalized
	}
	return "name:" + r.CustomerName
}

// SameIdentity kiểm tra hai record có cùng identity không, theo heuristic:
// phone chuẩn hóa trùng và đủ dài, HOẶC (chỉ khi phone của r trivial)
// tên trùng và phone của other cũng trivial.
func (r *ConsultationRecord) SameIdentity(other *ConsultationRecord) bool {
	phone := NormalizePhone(r.CustomerPhone)
	otherPhone := NormalizePhone(other.CustomerPhone)
	if len(phone) > 5 && phone == otherPhone {
		return true
	}
	if len(phone) <= 5 && r.CustomerName != "" && r.CustomerName == other.CustomerName && len(otherPhone) <= 5 {
		return true
	}
	return false
}

// ValidStatus kiểm tra status thuộc enum tư vấn (kể cả needs_admin)
func ValidStatus(status string) bool {
	switch status {
	case StatusConsulting, StatusQuoteGiven, StatusConfirmed, StatusPaid,
		StatusCompleted, StatusCancelled, StatusNeedsAdmin:
		return true
	}
	return false
}
