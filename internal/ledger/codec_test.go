package ledger

import (
	"testing"
	"time"
)

func TestEncodeRecord_LuonDu15Cot(t *testing.T) {
	row := EncodeRecord(&ConsultationRecord{})
	if len(row) != NumColumns {
		t.Fatalf("record trống phải encode thành %d cột, nhận %d", NumColumns, len(row))
	}

	r := &ConsultationRecord{
		CreatedAt:    time.Date(2025, 11, 3, 14, 30, 0, 0, time.Local),
		CustomerName: "Kim",
		Status:       StatusConsulting,
	}
	row = EncodeRecord(r)
	if len(row) != NumColumns {
		t.Fatalf("encode phải ra đúng %d cột kể cả khi nhiều field trống, nhận %d", NumColumns, len(row))
	}
	if row[0] != "2025-11-03 14:30:00" {
		t.Errorf("timestamp encode sai: %q", row[0])
	}
	if row[StatusColumnIndex] != StatusConsulting {
		t.Errorf("status phải nằm ở cột index %d, nhận %q", StatusColumnIndex, row[StatusColumnIndex])
	}
}

func TestDecodeRecord_DongThieuCot(t *testing.T) {
	// Sheet trả ragged rows: dòng chỉ có 3 cột đầu
	r := DecodeRecord([]string{"2025-11-03 14:30:00", "Kim", "01011112222"})
	if r.CustomerName != "Kim" {
		t.Errorf("tên decode sai: %q", r.CustomerName)
	}
	if r.CustomerPhone != "01011112222" {
		t.Errorf("phone decode sai: %q", r.CustomerPhone)
	}
	if r.Destination != "" || r.Status != "" || r.SourceChannel != "" {
		t.Error("các cột thiếu phải nhận giá trị trống, không được lỗi")
	}
	if r.CreatedAt.IsZero() {
		t.Error("timestamp hợp lệ phải được parse")
	}
}

func TestDecodeRecord_TimestampHong(t *testing.T) {
	r := DecodeRecord([]string{"không phải thời gian", "Kim"})
	if !r.CreatedAt.IsZero() {
		t.Error("timestamp hỏng phải decode thành zero time, không được lỗi")
	}
	if r.CustomerName != "Kim" {
		t.Error("timestamp hỏng không được ảnh hưởng các cột khác")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"010-1111-2222", "01011112222"},
		{"01011112222", "01011112222"},
		{"+84 90 123 4567", "84901234567"},
		{"chưa có", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, muốn %q", c.in, got, c.want)
		}
	}
}

func TestIdentityKey_FallbackTheoTen(t *testing.T) {
	r := &ConsultationRecord{CustomerName: "Kim", CustomerPhone: "010-1111-2222"}
	if r.IdentityKey() != "01011112222" {
		t.Errorf("phone đủ dài phải làm identity key, nhận %q", r.IdentityKey())
	}

	r = &ConsultationRecord{CustomerName: "Kim", CustomerPhone: "123"}
	if r.IdentityKey() != "name:Kim" {
		t.Errorf("phone trivial phải fallback sang tên, nhận %q", r.IdentityKey())
	}
}

func TestSheetStatusList_KhongChuaNeedsAdmin(t *testing.T) {
	// needs_admin chỉ là giá trị runtime; validation trên sheet cố ý bỏ nó
	for _, s := range SheetStatusList {
		if s == StatusNeedsAdmin {
			t.Fatal("SheetStatusList không được chứa needs_admin")
		}
	}
	if len(SheetStatusList) != 6 {
		t.Errorf("validation list phải có đúng 6 trạng thái, nhận %d", len(SheetStatusList))
	}
	if !ValidStatus(StatusNeedsAdmin) {
		t.Error("needs_admin vẫn phải hợp lệ ở tầng ứng dụng")
	}
}
