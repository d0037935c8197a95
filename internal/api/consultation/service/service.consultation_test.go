package consultationsvc

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	visitorsvc "smart_travel/internal/api/visitor/service"
	"smart_travel/internal/ledger"
)

// memTab là một tab in-memory, rows[0] là header
type memTab struct {
	name string
	gid  int64
	rows [][]string
}

// memRowStore là RowStore in-memory tối giản cho test service
type memRowStore struct {
	tabs    []*memTab
	nextGID int64
}

func newMemRowStore() *memRowStore {
	return &memRowStore{nextGID: 100}
}

func (s *memRowStore) addTab(name string) *memTab {
	tab := &memTab{name: name, gid: s.nextGID, rows: [][]string{ledger.HeaderRow}}
	s.nextGID++
	s.tabs = append(s.tabs, tab)
	return tab
}

func (s *memRowStore) findTab(name string) *memTab {
	for _, tab := range s.tabs {
		if tab.name == name {
			return tab
		}
	}
	return nil
}

func (s *memRowStore) ListTabs(ctx context.Context) ([]ledger.TabInfo, error) {
	infos := make([]ledger.TabInfo, 0, len(s.tabs))
	for _, tab := range s.tabs {
		infos = append(infos, ledger.TabInfo{Name: tab.name, GID: tab.gid})
	}
	return infos, nil
}

func (s *memRowStore) ReadRange(ctx context.Context, tabName string, rangeSpec string) ([][]string, error) {
	tab := s.findTab(tabName)
	if tab == nil {
		return nil, fmt.Errorf("tab %q không tồn tại", tabName)
	}
	if strings.HasPrefix(rangeSpec, "A2") {
		if len(tab.rows) <= 1 {
			return nil, nil
		}
		return tab.rows[1:], nil
	}
	return tab.rows, nil
}

func (s *memRowStore) AppendRow(ctx context.Context, tabName string, rangeSpec string, row []string) error {
	tab := s.findTab(tabName)
	if tab == nil {
		tab = s.addTab(tabName)
		tab.rows = nil
	}
	tab.rows = append(tab.rows, row)
	return nil
}

func (s *memRowStore) DeleteRows(ctx context.Context, gid int64, startIndex int64, endIndex int64) error {
	for _, tab := range s.tabs {
		if tab.gid == gid {
			tab.rows = append(tab.rows[:startIndex], tab.rows[endIndex:]...)
			return nil
		}
	}
	return fmt.Errorf("gid %d không tồn tại", gid)
}

func (s *memRowStore) UpdateCell(ctx context.Context, tabName string, cellRef string, value string) error {
	tab := s.findTab(tabName)
	if tab == nil {
		return fmt.Errorf("tab %q không tồn tại", tabName)
	}
	var col rune
	var rowNum int
	if _, err := fmt.Sscanf(cellRef, "%c%d", &col, &rowNum); err != nil {
		return err
	}
	colIdx := int(col - 'A')
	row := tab.rows[rowNum-1]
	for len(row) <= colIdx {
		row = append(row, "")
	}
	row[colIdx] = value
	tab.rows[rowNum-1] = row
	return nil
}

func (s *memRowStore) ApplyStructuralChanges(ctx context.Context, ops []ledger.StructuralOp) ([]ledger.StructuralResult, error) {
	results := make([]ledger.StructuralResult, len(ops))
	for i, op := range ops {
		switch {
		case op.AddTab != nil:
			tab := s.addTab(op.AddTab.Name)
			tab.rows = nil
			results[i] = ledger.StructuralResult{AddedTab: &ledger.TabInfo{Name: tab.name, GID: tab.gid}}
		case op.RenameTab != nil:
			for _, tab := range s.tabs {
				if tab.gid == op.RenameTab.GID {
					tab.name = op.RenameTab.NewName
				}
			}
		case op.SetValidation != nil:
			// Không cần mô phỏng validation trong test service
		}
	}
	return results, nil
}

var nov2025 = time.Date(2025, 11, 15, 10, 0, 0, 0, time.Local)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newTestService dựng ConsultationService trên store in-memory và visitor
// store không cấu hình (db nil)
func newTestService(store ledger.RowStore) *ConsultationService {
	return NewConsultationServiceWith(ledger.New(store, fixedClock(nov2025)), visitorsvc.NewVisitorServiceWithDB(nil))
}

func seedRecord(store *memRowStore, tabName string, r ledger.ConsultationRecord) {
	tab := store.findTab(tabName)
	if tab == nil {
		tab = store.addTab(tabName)
	}
	tab.rows = append(tab.rows, ledger.EncodeRecord(&r))
}

func TestList_MergeKhiVisitorStoreTat(t *testing.T) {
	store := newMemRowStore()
	seedRecord(store, "2025-11", ledger.ConsultationRecord{
		CreatedAt:     nov2025,
		CustomerName:  "Kim",
		CustomerPhone: "010-1111-2222",
		Destination:   "Osaka",
		Status:        ledger.StatusConsulting,
	})

	svc := newTestService(store)
	result := svc.List(context.Background(), false, ledger.MergeFilter{})

	if len(result) != 1 {
		t.Fatalf("muốn 1 record sau merge, có %d", len(result))
	}
	if !strings.HasPrefix(result[0].StableID, "tmp_") {
		t.Errorf("record chỉ có trên sổ phải được cấp id tạm tmp_, có %q", result[0].StableID)
	}
	if result[0].PartitionName != "2025-11" || result[0].RowIndex != 2 {
		t.Errorf("metadata vị trí phải đi xuyên qua merge, có %q dòng %d", result[0].PartitionName, result[0].RowIndex)
	}
}

func TestList_FilterTheoStatusVaQuery(t *testing.T) {
	store := newMemRowStore()
	seedRecord(store, "2025-11", ledger.ConsultationRecord{
		CreatedAt: nov2025, CustomerName: "Kim", CustomerPhone: "01011112222",
		Destination: "Osaka", Status: ledger.StatusConsulting,
	})
	seedRecord(store, "2025-11", ledger.ConsultationRecord{
		CreatedAt: nov2025, CustomerName: "Lee", CustomerPhone: "01033334444",
		Destination: "Danang", Status: ledger.StatusPaid,
	})

	svc := newTestService(store)

	paid := svc.List(context.Background(), false, ledger.MergeFilter{Status: ledger.StatusPaid})
	if len(paid) != 1 || paid[0].CustomerName != "Lee" {
		t.Errorf("filter status=paid phải chỉ còn Lee, có %+v", paid)
	}

	osaka := svc.List(context.Background(), true, ledger.MergeFilter{Query: "osaka"})
	if len(osaka) != 1 || osaka[0].CustomerName != "Kim" {
		t.Errorf("filter q=osaka phải chỉ còn Kim, có %+v", osaka)
	}
}

func TestHistory_TraVeCuNhatTruoc(t *testing.T) {
	store := newMemRowStore()
	seedRecord(store, "2025-10", ledger.ConsultationRecord{
		CreatedAt: nov2025.AddDate(0, -1, 0), CustomerName: "Kim", CustomerPhone: "01011112222",
		Destination: "Danang", Status: ledger.StatusConsulting,
	})
	seedRecord(store, "2025-11", ledger.ConsultationRecord{
		CreatedAt: nov2025, CustomerName: "Kim", CustomerPhone: "010-1111-2222",
		Destination: "Osaka", Status: ledger.StatusQuoteGiven,
	})

	svc := newTestService(store)
	history := svc.History(context.Background(), "01011112222")

	if len(history) != 2 {
		t.Fatalf("muốn 2 lượt tư vấn trong lịch sử, có %d", len(history))
	}
	if history[0].Destination != "Danang" || history[1].Destination != "Osaka" {
		t.Errorf("lịch sử phải cũ nhất trước, có %q rồi %q", history[0].Destination, history[1].Destination)
	}
}

func TestUpsert_GhiSoVaBoQuaMirrorKhiKhongCoStableID(t *testing.T) {
	store := newMemRowStore()
	store.addTab("2025-11")
	svc := newTestService(store)

	saved, mirrored, visitorErr := svc.Upsert(context.Background(), ledger.ConsultationRecord{
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
		Destination:   "Osaka",
	}, "")

	if !saved {
		t.Error("ghi sổ trên store hoạt động phải trả true")
	}
	if mirrored || visitorErr != nil {
		t.Errorf("không có stableId thì không mirror: mirrored=%v err=%v", mirrored, visitorErr)
	}

	tab := store.findTab("2025-11")
	if len(tab.rows) != 2 {
		t.Errorf("sổ phải có header + 1 dòng dữ liệu, có %d dòng", len(tab.rows))
	}
}

func TestUpsert_MirrorTaoVisitorChuaTonTai(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("mở sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectExec("INSERT INTO visitors").WillReturnResult(sqlmock.NewResult(1, 1))

	store := newMemRowStore()
	store.addTab("2025-11")
	l := ledger.New(store, fixedClock(nov2025))
	svc := NewConsultationServiceWith(l, visitorsvc.NewVisitorServiceWithDB(db))

	// Stable id chưa có dòng nào trong visitor store: mirror phải tạo mới
	// chứ không được âm thầm bỏ qua rồi báo đã mirror
	saved, mirrored, visitorErr := svc.Upsert(context.Background(), ledger.ConsultationRecord{
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
		Destination:   "Osaka",
		Status:        ledger.StatusConsulting,
	}, "visitor_moi_toanh")

	if !saved {
		t.Error("ghi sổ trên store hoạt động phải trả true")
	}
	if visitorErr != nil {
		t.Fatalf("mirror với stable id mới không được lỗi: %v", visitorErr)
	}
	if !mirrored {
		t.Error("mirror đã ghi xuống visitor store thì phải báo mirrored=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("visitor store phải nhận đúng một lệnh upsert: %v", err)
	}
}

func TestUpsert_StoreTatKhongDuocBaoDaMirror(t *testing.T) {
	store := newMemRowStore()
	store.addTab("2025-11")
	svc := newTestService(store)

	saved, mirrored, visitorErr := svc.Upsert(context.Background(), ledger.ConsultationRecord{
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
	}, "visitor_abc")

	if !saved {
		t.Error("ghi sổ trên store hoạt động phải trả true")
	}
	if mirrored {
		t.Error("visitor store không cấu hình thì không có mirror nào xảy ra, không được báo mirrored=true")
	}
	if visitorErr != nil {
		t.Errorf("store tắt là degrade chứ không phải lỗi: %v", visitorErr)
	}
}

func TestUpsert_LedgerTatTraFalseKhongPanic(t *testing.T) {
	svc := NewConsultationServiceWith(ledger.NewDisabled(), visitorsvc.NewVisitorServiceWithDB(nil))

	saved, mirrored, visitorErr := svc.Upsert(context.Background(), ledger.ConsultationRecord{
		CustomerName:  "Kim",
		CustomerPhone: "01011112222",
	}, "visitor_abc")

	if saved {
		t.Error("ledger no-op phải trả false")
	}
	if mirrored || visitorErr != nil {
		t.Errorf("visitor store không cấu hình thì mirror là no-op: mirrored=%v err=%v", mirrored, visitorErr)
	}
}

func TestDeleteAt_XoaDongTrenSo(t *testing.T) {
	store := newMemRowStore()
	seedRecord(store, "2025-11", ledger.ConsultationRecord{
		CreatedAt: nov2025, CustomerName: "Kim", CustomerPhone: "01011112222",
		Destination: "Osaka", Status: ledger.StatusConsulting,
	})

	svc := newTestService(store)

	if !svc.DeleteAt(context.Background(), "2025-11", 2) {
		t.Fatal("xóa dòng tồn tại phải trả true")
	}
	if tab := store.findTab("2025-11"); len(tab.rows) != 1 {
		t.Errorf("sau xóa chỉ còn header, có %d dòng", len(tab.rows))
	}

	if svc.DeleteAt(context.Background(), "2025-11", 1) {
		t.Error("không bao giờ được xóa dòng header")
	}
}

func TestSetStatus_CapNhatCotTrangThai(t *testing.T) {
	store := newMemRowStore()
	seedRecord(store, "2025-11", ledger.ConsultationRecord{
		CreatedAt: nov2025, CustomerName: "Kim", CustomerPhone: "01011112222",
		Destination: "Osaka", Status: ledger.StatusConsulting,
	})

	svc := newTestService(store)

	if !svc.SetStatus(context.Background(), "2025-11", 2, ledger.StatusPaid) {
		t.Fatal("đổi trạng thái hợp lệ phải trả true")
	}
	tab := store.findTab("2025-11")
	if got := tab.rows[1][ledger.StatusColumnIndex]; got != ledger.StatusPaid {
		t.Errorf("cột trạng thái phải thành %q, có %q", ledger.StatusPaid, got)
	}

	if svc.SetStatus(context.Background(), "2025-11", 2, "banana") {
		t.Error("trạng thái ngoài danh sách phải bị từ chối")
	}
}
