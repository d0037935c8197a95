package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SecondaryRecord là một visitor từ nguồn thứ hai (bảng quan hệ),
// định danh bằng stable id thay vì phone/tên.
type SecondaryRecord struct {
	StableID      string    `json:"stableId"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Destination   string    `json:"destination"`
	ProductName   string    `json:"productName"`
	DepartureDate string    `json:"departureDate"`
	URL           string    `json:"url"`
	Status        string    `json:"status"`
	Summary       string    `json:"summary"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MergedRecord là kết quả đối soát một khách giữa ledger và visitor store.
// StableID giữ nguyên từ visitor store khi match được; record chỉ có trong
// ledger nhận id tạm dạng tmp_<phone>_<unix>.
type MergedRecord struct {
	StableID      string    `json:"stableId"`
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
	UpdatedAt     time.Time `json:"updatedAt"`

	// Vị trí dòng trên ledger, rỗng khi record chỉ có trong visitor store
	PartitionName string `json:"partitionName,omitempty"`
	RowIndex      int    `json:"rowIndex,omitempty"`
}

// MergeFilter là các filter áp dụng SAU khi merge
type MergeFilter struct {
	Status string // So sánh bằng, rỗng là bỏ qua
	Query  string // Substring không phân biệt hoa thường trên tên/điểm đến/sản phẩm
	Limit  int    // Cắt kết quả, <=0 là không giới hạn
}

// Reconcile đối soát danh sách ledger với danh sách visitor store.
// Hàm thuần: không network call, không side effect. Ledger là nguồn sự thật
// cho các field con người sửa được - field của ledger ghi đè field của visitor,
// nhưng stable id của visitor được giữ lại và timestamp lấy cái muộn hơn.
func Reconcile(ledgerRecords []ConsultationRecord, secondary []SecondaryRecord, filter MergeFilter) []MergedRecord {
	byID := make(map[string]*MergedRecord, len(secondary))
	order := make([]string, 0, len(secondary)+len(ledgerRecords))

	for i := range secondary {
		s := &secondary[i]
		byID[s.StableID] = &MergedRecord{
			StableID:      s.StableID,
			CustomerName:  s.CustomerName,
			CustomerPhone: s.CustomerPhone,
			Destination:   s.Destination,
			DepartureDate: s.DepartureDate,
			ProductName:   s.ProductName,
			ProductURL:    s.URL,
			Summary:       s.Summary,
			Status:        s.Status,
			UpdatedAt:     s.UpdatedAt,
		}
		order = append(order, s.StableID)
	}

	for i := range ledgerRecords {
		r := &ledgerRecords[i]
		entry := findSecondaryMatch(byID, order, r)
		if entry == nil {
			id := temporaryID(r)
			merged := &MergedRecord{StableID: id}
			overwriteFromLedger(merged, r)
			merged.UpdatedAt = r.CreatedAt
			byID[id] = merged
			order = append(order, id)
			continue
		}

		overwriteFromLedger(entry, r)
		if r.CreatedAt.After(entry.UpdatedAt) {
			entry.UpdatedAt = r.CreatedAt
		}
	}

	out := make([]MergedRecord, 0, len(order))
	for _, id := range order {
		m := byID[id]
		if !matchesFilter(m, &filter) {
			continue
		}
		out = append(out, *m)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// findSecondaryMatch tìm entry visitor khớp với record ledger:
// ưu tiên phone chuẩn hóa trùng, fallback tên trùng khi entry chưa có phone.
func findSecondaryMatch(byID map[string]*MergedRecord, order []string, r *ConsultationRecord) *MergedRecord {
	phone := NormalizePhone(r.CustomerPhone)
	if phone != "" {
		for _, id := range order {
			entry := byID[id]
			if NormalizePhone(entry.CustomerPhone) == phone {
				return entry
			}
		}
	}
	if r.CustomerName != "" {
		for _, id := range order {
			entry := byID[id]
			if entry.CustomerName == r.CustomerName && NormalizePhone(entry.CustomerPhone) == "" {
				return entry
			}
		}
	}
	return nil
}

// overwriteFromLedger ghi đè các field sửa được bằng giá trị từ ledger.
// Chỉ ghi đè khi ledger có giá trị - field trống trên sheet không xóa
// dữ liệu visitor store đã có.
func overwriteFromLedger(entry *MergedRecord, r *ConsultationRecord) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&entry.CustomerName, r.CustomerName)
	set(&entry.CustomerPhone, r.CustomerPhone)
	set(&entry.Destination, r.Destination)
	set(&entry.DepartureDate, r.DepartureDate)
	set(&entry.ReturnDate, r.ReturnDate)
	set(&entry.Duration, r.Duration)
	set(&entry.ProductName, r.ProductName)
	set(&entry.ProductURL, r.ProductURL)
	set(&entry.Summary, r.Summary)
	set(&entry.Status, r.Status)
	set(&entry.NextFollowup, r.NextFollowup)
	set(&entry.BalanceDue, r.BalanceDue)
	set(&entry.NoticeDate, r.NoticeDate)
	set(&entry.SourceChannel, r.SourceChannel)
	entry.PartitionName = r.PartitionName
	entry.RowIndex = r.RowIndex
}

// temporaryID sinh id tạm cho record chỉ tồn tại trên ledger
func temporaryID(r *ConsultationRecord) string {
	return fmt.Sprintf("tmp_%s_%d", NormalizePhone(r.CustomerPhone), r.CreatedAt.Unix())
}

// matchesFilter áp dụng filter status và filter substring sau merge
func matchesFilter(m *MergedRecord, filter *MergeFilter) bool {
	if filter.Status != "" && m.Status != filter.Status {
		return false
	}
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		if !strings.Contains(strings.ToLower(m.CustomerName), q) &&
			!strings.Contains(strings.ToLower(m.Destination), q) &&
			!strings.Contains(strings.ToLower(m.ProductName), q) {
			return false
		}
	}
	return true
}
