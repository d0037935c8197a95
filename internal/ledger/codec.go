package ledger

import (
	"time"
)

// Hợp đồng wire với sheet: 15 cột cố định theo đúng thứ tự này.
// Thứ tự cột là contract, đổi là vỡ dữ liệu cũ - không reorder.
const (
	colCreatedAt = iota
	colCustomerName
	colCustomerPhone
	colDestination
	colDepartureDate
	colReturnDate
	colDuration
	colProductName
	colProductURL
	colSummary
	colStatus
	colNextFollowup
	colBalanceDue
	colNoticeDate
	colSourceChannel

	// NumColumns là tổng số cột của một dòng dữ liệu
	NumColumns = 15
)

// StatusColumnIndex là index 0-based của cột trạng thái,
// dùng cho data validation rule trên sheet.
const StatusColumnIndex = colStatus

// timestampLayout là định dạng thời gian ghi vào cột đầu tiên
const timestampLayout = "2006-01-02 15:04:05"

// HeaderRow là dòng header cố định của mỗi partition
var HeaderRow = []string{
	"Thời gian",
	"Tên khách",
	"SĐT",
	"Điểm đến",
	"Ngày đi",
	"Ngày về",
	"Số ngày",
	"Tên sản phẩm",
	"Link sản phẩm",
	"Tóm tắt tư vấn",
	"Trạng thái",
	"Ngày hẹn liên hệ",
	"Hạn thanh toán",
	"Ngày thông báo",
	"Kênh",
}

// EncodeRecord chuyển record thành dòng 15 cột.
// Luôn emit đủ 15 cột kể cả khi giá trị trống, để giữ alignment
// cho validation rule gắn với index cột cố định.
func EncodeRecord(r *ConsultationRecord) []string {
	row := make([]string, NumColumns)
	if !r.CreatedAt.IsZero() {
		row[colCreatedAt] = r.CreatedAt.Format(timestampLayout)
	}
	row[colCustomerName] = r.CustomerName
	row[colCustomerPhone] = r.CustomerPhone
	row[colDestination] = r.Destination
	row[colDepartureDate] = r.DepartureDate
	row[colReturnDate] = r.ReturnDate
	row[colDuration] = r.Duration
	row[colProductName] = r.ProductName
	row[colProductURL] = r.ProductURL
	row[colSummary] = r.Summary
	row[colStatus] = r.Status
	row[colNextFollowup] = r.NextFollowup
	row[colBalanceDue] = r.BalanceDue
	row[colNoticeDate] = r.NoticeDate
	row[colSourceChannel] = r.SourceChannel
	return row
}

// DecodeRecord chuyển một dòng từ sheet thành record.
// Decode lenient: dòng thiếu cột (sheet trả ragged rows) thì các field
// còn lại nhận giá trị trống thay vì lỗi.
func DecodeRecord(row []string) ConsultationRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	r := ConsultationRecord{
		CustomerName:  get(colCustomerName),
		CustomerPhone: get(colCustomerPhone),
		Destination:   get(colDestination),
		DepartureDate: get(colDepartureDate),
		ReturnDate:    get(colReturnDate),
		Duration:      get(colDuration),
		ProductName:   get(colProductName),
		ProductURL:    get(colProductURL),
		Summary:       get(colSummary),
		Status:        get(colStatus),
		NextFollowup:  get(colNextFollowup),
		BalanceDue:    get(colBalanceDue),
		NoticeDate:    get(colNoticeDate),
		SourceChannel: get(colSourceChannel),
	}

	if ts := get(colCreatedAt); ts != "" {
		if t, err := time.ParseInLocation(timestampLayout, ts, time.Local); err == nil {
			r.CreatedAt = t
		}
	}

	return r
}
