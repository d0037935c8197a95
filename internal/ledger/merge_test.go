package ledger

import (
	"strings"
	"testing"
	"time"
)

func TestReconcile_LedgerGhiDeVisitor(t *testing.T) {
	visitorTime := time.Date(2025, 11, 1, 9, 0, 0, 0, time.Local)
	ledgerTime := time.Date(2025, 11, 10, 9, 0, 0, 0, time.Local)

	secondary := []SecondaryRecord{{
		StableID:      "v_001",
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
		Destination:   "Hanoi",
		Status:        StatusConsulting,
		UpdatedAt:     visitorTime,
	}}
	ledgerRecords := []ConsultationRecord{{
		CreatedAt:     ledgerTime,
		CustomerName:  "Kim",
		CustomerPhone: "010-1111-2222", // Format khác nhưng cùng số
		Destination:   "Danang",
		Status:        StatusQuoteGiven,
		PartitionName: "2025-11",
		RowIndex:      2,
	}}

	out := Reconcile(ledgerRecords, secondary, MergeFilter{})
	if len(out) != 1 {
		t.Fatalf("match theo phone phải gộp còn 1 record, nhận %d", len(out))
	}
	m := out[0]
	if m.StableID != "v_001" {
		t.Errorf("stable id của visitor phải được giữ lại, nhận %q", m.StableID)
	}
	if m.Destination != "Danang" || m.Status != StatusQuoteGiven {
		t.Errorf("field của ledger phải ghi đè visitor, nhận destination=%q status=%q", m.Destination, m.Status)
	}
	if !m.UpdatedAt.Equal(ledgerTime) {
		t.Errorf("timestamp phải lấy cái muộn hơn, nhận %v", m.UpdatedAt)
	}
	if m.PartitionName != "2025-11" || m.RowIndex != 2 {
		t.Error("vị trí dòng trên ledger phải đi theo record merge")
	}
}

func TestReconcile_FieldTrongKhongXoaDuLieuVisitor(t *testing.T) {
	secondary := []SecondaryRecord{{
		StableID:      "v_001",
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
		Summary:       "Đã hỏi tour Đà Nẵng 3N2Đ",
		UpdatedAt:     time.Date(2025, 11, 1, 9, 0, 0, 0, time.Local),
	}}
	ledgerRecords := []ConsultationRecord{{
		CreatedAt:     time.Date(2025, 11, 10, 9, 0, 0, 0, time.Local),
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
		Summary:       "", // Sheet chưa điền tóm tắt
	}}

	out := Reconcile(ledgerRecords, secondary, MergeFilter{})
	if out[0].Summary != "Đã hỏi tour Đà Nẵng 3N2Đ" {
		t.Errorf("field trống trên ledger không được xóa dữ liệu visitor, nhận %q", out[0].Summary)
	}
}

func TestReconcile_FallbackTheoTenKhiVisitorChuaCoPhone(t *testing.T) {
	secondary := []SecondaryRecord{
		{StableID: "v_001", CustomerName: "Kim", CustomerPhone: "", UpdatedAt: nov2025},
		{StableID: "v_002", CustomerName: "Kim", CustomerPhone: "01099998888", UpdatedAt: nov2025},
	}
	ledgerRecords := []ConsultationRecord{{
		CreatedAt:    nov2025,
		CustomerName: "Kim",
		Destination:  "Osaka",
	}}

	out := Reconcile(ledgerRecords, secondary, MergeFilter{})
	if len(out) != 2 {
		t.Fatalf("phải còn 2 record, nhận %d", len(out))
	}
	for _, m := range out {
		switch m.StableID {
		case "v_001":
			if m.Destination != "Osaka" {
				t.Error("record ledger không phone phải merge vào visitor cùng tên CHƯA có phone")
			}
		case "v_002":
			if m.Destination != "" {
				t.Error("visitor đã có phone không được nhận merge theo tên")
			}
		default:
			t.Errorf("stable id lạ: %q", m.StableID)
		}
	}
}

func TestReconcile_SinhIdTamChoRecordChiCoTrenLedger(t *testing.T) {
	ledgerRecords := []ConsultationRecord{{
		CreatedAt:     time.Date(2025, 11, 10, 9, 0, 0, 0, time.Local),
		CustomerName:  "Park",
		CustomerPhone: "010-5555-6666",
	}}

	out := Reconcile(ledgerRecords, nil, MergeFilter{})
	if len(out) != 1 {
		t.Fatalf("phải có 1 record, nhận %d", len(out))
	}
	if !strings.HasPrefix(out[0].StableID, "tmp_01055556666_") {
		t.Errorf("record chỉ có trên ledger phải nhận id tạm tmp_<phone>_<unix>, nhận %q", out[0].StableID)
	}
}

func TestReconcile_SortMoiNhatTruoc(t *testing.T) {
	secondary := []SecondaryRecord{
		{StableID: "v_old", CustomerName: "A", CustomerPhone: "01011111111", UpdatedAt: time.Date(2025, 11, 1, 0, 0, 0, 0, time.Local)},
		{StableID: "v_new", CustomerName: "B", CustomerPhone: "01022222222", UpdatedAt: time.Date(2025, 11, 20, 0, 0, 0, 0, time.Local)},
		{StableID: "v_mid", CustomerName: "C", CustomerPhone: "01033333333", UpdatedAt: time.Date(2025, 11, 10, 0, 0, 0, 0, time.Local)},
	}

	out := Reconcile(nil, secondary, MergeFilter{})
	for i, want := range []string{"v_new", "v_mid", "v_old"} {
		if out[i].StableID != want {
			t.Errorf("out[%d] = %q, muốn %q (sort mới nhất trước)", i, out[i].StableID, want)
		}
	}
}

func TestReconcile_FilterVaLimit(t *testing.T) {
	secondary := []SecondaryRecord{
		{StableID: "v_1", CustomerName: "Kim", Destination: "Đà Nẵng", Status: StatusConsulting, CustomerPhone: "01011111111", UpdatedAt: nov2025},
		{StableID: "v_2", CustomerName: "Lee", Destination: "Osaka", Status: StatusPaid, CustomerPhone: "01022222222", UpdatedAt: nov2025.Add(time.Hour)},
		{StableID: "v_3", CustomerName: "Park", ProductName: "Tour OSAKA 5N4Đ", Status: StatusConsulting, CustomerPhone: "01033333333", UpdatedAt: nov2025.Add(2 * time.Hour)},
	}

	out := Reconcile(nil, secondary, MergeFilter{Status: StatusConsulting})
	if len(out) != 2 {
		t.Errorf("filter status phải còn 2 record, nhận %d", len(out))
	}

	// Query không phân biệt hoa thường, quét tên/điểm đến/sản phẩm
	out = Reconcile(nil, secondary, MergeFilter{Query: "osaka"})
	if len(out) != 2 {
		t.Errorf("query 'osaka' phải match cả điểm đến lẫn tên sản phẩm, nhận %d record", len(out))
	}

	out = Reconcile(nil, secondary, MergeFilter{Limit: 1})
	if len(out) != 1 || out[0].StableID != "v_3" {
		t.Errorf("limit phải cắt sau khi sort, record còn lại phải là bản mới nhất, nhận %v", out)
	}
}
