package ledger

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestUpsert_DoiDiemDenKemGhiChuLichSu(t *testing.T) {
	store := newFakeRowStore()
	l := New(store, fixedClock(nov2025))
	ctx := context.Background()

	if !l.Upsert(ctx, ConsultationRecord{CustomerName: "Kim", CustomerPhone: "010-1111-2222", Destination: "Danang"}) {
		t.Fatal("upsert lần đầu phải thành công")
	}

	records := l.List(ctx, true)
	if len(records) != 1 {
		t.Fatalf("sau lần ghi đầu phải có 1 record, nhận %d", len(records))
	}
	if records[0].Destination != "Danang" {
		t.Errorf("điểm đến sai: %q", records[0].Destination)
	}

	// Cùng khách, phone viết khác format, đổi điểm đến
	if !l.Upsert(ctx, ConsultationRecord{CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Osaka"}) {
		t.Fatal("upsert lần hai phải thành công")
	}

	records = l.List(ctx, true)
	if len(records) != 1 {
		t.Fatalf("upsert không được tạo record trùng, nhận %d record", len(records))
	}
	if records[0].Destination != "Osaka" {
		t.Errorf("điểm đến phải là Osaka, nhận %q", records[0].Destination)
	}
	if !strings.Contains(records[0].Summary, "[history: previously considered Danang]") {
		t.Errorf("summary phải chứa ghi chú lịch sử đổi điểm đến, nhận %q", records[0].Summary)
	}
}

func TestUpsert_GhiChuLichSuIdempotent(t *testing.T) {
	store := newFakeRowStore()
	l := New(store, fixedClock(nov2025))
	ctx := context.Background()

	note := historyAnnotation("Danang")

	// Message bị replay: dòng cũ vẫn là Danang, còn summary gửi lên
	// đã chứa sẵn ghi chú từ lần xử lý trước
	tab := store.findTab("2025-11")
	if tab == nil {
		tab = store.addTab("2025-11", true)
	}
	tab.rows = append(tab.rows, EncodeRecord(&ConsultationRecord{
		CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Danang",
	}))

	l.Upsert(ctx, ConsultationRecord{
		CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Osaka",
		Summary: "Khách chốt Osaka " + note,
	})

	records := l.List(ctx, true)
	if len(records) != 1 {
		t.Fatalf("phải còn đúng 1 record, nhận %d", len(records))
	}
	if got := strings.Count(records[0].Summary, note); got != 1 {
		t.Errorf("ghi chú lịch sử phải xuất hiện đúng 1 lần, đếm được %d trong %q", got, records[0].Summary)
	}
}

func TestUpsert_ChuyenSangPartitionHienTai(t *testing.T) {
	store := newFakeRowStore()
	old := store.addTab("2025-10", true)
	oldRecord := ConsultationRecord{
		CreatedAt:     time.Date(2025, 10, 5, 9, 0, 0, 0, time.Local),
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
		Destination:   "Danang",
	}
	old.rows = append(old.rows, EncodeRecord(&oldRecord))

	l := New(store, fixedClock(nov2025))
	if !l.Upsert(context.Background(), ConsultationRecord{CustomerName: "Kim", CustomerPhone: "010-1111-2222", Destination: "Osaka"}) {
		t.Fatal("upsert phải thành công")
	}

	if n := len(store.dataRows("2025-10")); n != 0 {
		t.Errorf("partition cũ phải hết sạch record của identity này, còn %d dòng", n)
	}
	rows := store.dataRows("2025-11")
	if len(rows) != 1 {
		t.Fatalf("partition tháng hiện tại phải có đúng 1 dòng, nhận %d", len(rows))
	}
	if rows[0][colDestination] != "Osaka" {
		t.Errorf("dòng mới sai điểm đến: %q", rows[0][colDestination])
	}
}

func TestUpsert_TimDongMoiNhatTruoc(t *testing.T) {
	// Hai dòng cùng identity trong một partition (trạng thái bẩn do race cũ):
	// quét từ dòng cuối ngược lên nên phải match dòng dưới (mới hơn)
	store := newFakeRowStore()
	tab := store.addTab("2025-11", true)
	tab.rows = append(tab.rows, EncodeRecord(&ConsultationRecord{
		CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Hanoi",
	}))
	tab.rows = append(tab.rows, EncodeRecord(&ConsultationRecord{
		CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Danang",
	}))

	l := New(store, fixedClock(nov2025))
	l.Upsert(context.Background(), ConsultationRecord{CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Osaka"})

	rows := store.dataRows("2025-11")
	if len(rows) != 2 {
		t.Fatalf("chỉ dòng match (dòng cuối) bị xóa, phải còn 2 dòng, nhận %d", len(rows))
	}
	last := rows[len(rows)-1]
	if !strings.Contains(last[colSummary], "Danang") {
		t.Errorf("ghi chú lịch sử phải lấy điểm đến của dòng mới nhất (Danang), summary: %q", last[colSummary])
	}
}

func TestUpsert_FallbackTheoTenKhiPhoneTrivial(t *testing.T) {
	store := newFakeRowStore()
	l := New(store, fixedClock(nov2025))
	ctx := context.Background()

	l.Upsert(ctx, ConsultationRecord{CustomerName: "Kim", CustomerPhone: "", Destination: "Danang"})
	l.Upsert(ctx, ConsultationRecord{CustomerName: "Kim", CustomerPhone: "", Destination: "Osaka"})

	if n := len(store.dataRows("2025-11")); n != 1 {
		t.Errorf("hai lần upsert cùng tên không phone phải gộp làm 1 dòng, nhận %d", n)
	}

	// Cùng tên nhưng dòng cũ ĐÃ có phone thật: không được match theo tên
	l.Upsert(ctx, ConsultationRecord{CustomerName: "Lee", CustomerPhone: "01099998888", Destination: "Tokyo"})
	l.Upsert(ctx, ConsultationRecord{CustomerName: "Lee", CustomerPhone: "", Destination: "Seoul"})

	count := 0
	for _, row := range store.dataRows("2025-11") {
		if row[colCustomerName] == "Lee" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("khách không phone không được gộp vào khách đã có phone thật, muốn 2 dòng Lee, nhận %d", count)
	}
}

func TestUpsert_TatFallbackTheoTen(t *testing.T) {
	store := newFakeRowStore()
	l := New(store, fixedClock(nov2025))
	l.Engine().MatchNameFallback = false
	ctx := context.Background()

	l.Upsert(ctx, ConsultationRecord{CustomerName: "Kim", CustomerPhone: "", Destination: "Danang"})
	l.Upsert(ctx, ConsultationRecord{CustomerName: "Kim", CustomerPhone: "", Destination: "Osaka"})

	if n := len(store.dataRows("2025-11")); n != 2 {
		t.Errorf("tắt fallback thì hai lần upsert không phone phải thành 2 dòng riêng, nhận %d", n)
	}
}

func TestUpsert_AppendLoiSauKhiXoa(t *testing.T) {
	// Xóa xong mà append lỗi: không có transaction bù, upsert phải trả false
	// và dòng cũ đã mất - kịch bản data-loss được chấp nhận nhưng phải báo lỗi
	store := newFakeRowStore()
	tab := store.addTab("2025-11", true)
	tab.rows = append(tab.rows, EncodeRecord(&ConsultationRecord{
		CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Danang",
	}))

	l := New(store, fixedClock(nov2025))
	store.failAppend = true

	if l.Upsert(context.Background(), ConsultationRecord{CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Osaka"}) {
		t.Fatal("append lỗi thì upsert phải trả false")
	}
	if n := len(store.dataRows("2025-11")); n != 0 {
		t.Errorf("dòng cũ đã bị xóa trước khi append lỗi, store còn %d dòng", n)
	}
}

func TestAppend_KhongQuetKhongXoa(t *testing.T) {
	store := newFakeRowStore()
	tab := store.addTab("2025-11", true)
	tab.rows = append(tab.rows, EncodeRecord(&ConsultationRecord{
		CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Danang",
	}))

	l := New(store, fixedClock(nov2025))
	if !l.Append(context.Background(), ConsultationRecord{CustomerName: "Kim", CustomerPhone: "01011112222", Destination: "Osaka"}) {
		t.Fatal("append phải thành công")
	}

	if n := len(store.dataRows("2025-11")); n != 2 {
		t.Errorf("append là đường ghi không tìm kiếm, dòng cũ phải còn nguyên, nhận %d dòng", n)
	}
}

func TestUpsert_LedgerNoOp(t *testing.T) {
	l := NewDisabled()
	if l.Upsert(context.Background(), ConsultationRecord{CustomerName: "Kim"}) {
		t.Error("ledger no-op phải trả false khi ghi")
	}
	if records := l.List(context.Background(), true); len(records) != 0 {
		t.Error("ledger no-op phải trả danh sách rỗng khi đọc")
	}
}
