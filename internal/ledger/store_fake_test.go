// Package ledger - fake RowStore in-memory cho test: giữ nguyên semantics
// partition + xóa-rồi-ghi-lại mà không cần network.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type fakeTab struct {
	name string
	gid  int64
	rows [][]string // rows[0] là header nếu có
}

type fakeRowStore struct {
	tabs    []*fakeTab
	nextGID int64

	// Danh sách validation đã gắn, key theo gid
	validations map[int64][]string

	// Injection lỗi cho từng loại call
	failRead   bool
	failAppend bool
	failDelete bool
}

func newFakeRowStore() *fakeRowStore {
	return &fakeRowStore{nextGID: 100, validations: make(map[int64][]string)}
}

// addTab thêm tab trực tiếp (setup test), trả về tab để nhét dòng
func (f *fakeRowStore) addTab(name string, withHeader bool) *fakeTab {
	tab := &fakeTab{name: name, gid: f.nextGID}
	f.nextGID++
	if withHeader {
		tab.rows = append(tab.rows, append([]string{}, HeaderRow...))
	}
	f.tabs = append(f.tabs, tab)
	return tab
}

func (f *fakeRowStore) findTab(name string) *fakeTab {
	for _, tab := range f.tabs {
		if tab.name == name {
			return tab
		}
	}
	return nil
}

func (f *fakeRowStore) findTabByGID(gid int64) *fakeTab {
	for _, tab := range f.tabs {
		if tab.gid == gid {
			return tab
		}
	}
	return nil
}

// dataRows trả về các dòng dữ liệu (bỏ header) của tab, phục vụ assertion
func (f *fakeRowStore) dataRows(name string) [][]string {
	tab := f.findTab(name)
	if tab == nil || len(tab.rows) <= 1 {
		return nil
	}
	return tab.rows[1:]
}

func (f *fakeRowStore) ListTabs(ctx context.Context) ([]TabInfo, error) {
	if f.failRead {
		return nil, fmt.Errorf("fake: list tabs lỗi")
	}
	tabs := make([]TabInfo, 0, len(f.tabs))
	for _, tab := range f.tabs {
		tabs = append(tabs, TabInfo{Name: tab.name, GID: tab.gid})
	}
	return tabs, nil
}

func (f *fakeRowStore) ReadRange(ctx context.Context, tabName string, rangeSpec string) ([][]string, error) {
	if f.failRead {
		return nil, fmt.Errorf("fake: read range lỗi")
	}
	tab := f.findTab(tabName)
	if tab == nil {
		return nil, fmt.Errorf("fake: không có tab %q", tabName)
	}
	// Chỉ cần phân biệt range bỏ header (A2:...) với range cả tab
	if strings.HasPrefix(rangeSpec, "A2") {
		if len(tab.rows) <= 1 {
			return nil, nil
		}
		return tab.rows[1:], nil
	}
	return tab.rows, nil
}

func (f *fakeRowStore) AppendRow(ctx context.Context, tabName string, rangeSpec string, row []string) error {
	if f.failAppend {
		return fmt.Errorf("fake: append lỗi")
	}
	tab := f.findTab(tabName)
	if tab == nil {
		return fmt.Errorf("fake: không có tab %q", tabName)
	}
	tab.rows = append(tab.rows, append([]string{}, row...))
	return nil
}

func (f *fakeRowStore) DeleteRows(ctx context.Context, gid int64, startIndex int64, endIndex int64) error {
	if f.failDelete {
		return fmt.Errorf("fake: delete lỗi")
	}
	tab := f.findTabByGID(gid)
	if tab == nil {
		return fmt.Errorf("fake: không có tab gid=%d", gid)
	}
	if startIndex < 0 || endIndex > int64(len(tab.rows)) || startIndex >= endIndex {
		return fmt.Errorf("fake: range xóa không hợp lệ [%d,%d)", startIndex, endIndex)
	}
	tab.rows = append(tab.rows[:startIndex], tab.rows[endIndex:]...)
	return nil
}

func (f *fakeRowStore) UpdateCell(ctx context.Context, tabName string, cellRef string, value string) error {
	tab := f.findTab(tabName)
	if tab == nil {
		return fmt.Errorf("fake: không có tab %q", tabName)
	}
	col := int(cellRef[0] - 'A')
	rowNum, err := strconv.Atoi(cellRef[1:])
	if err != nil {
		return fmt.Errorf("fake: cell ref %q không hợp lệ", cellRef)
	}
	if rowNum < 1 || rowNum > len(tab.rows) {
		return fmt.Errorf("fake: dòng %d ngoài phạm vi", rowNum)
	}
	row := tab.rows[rowNum-1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	tab.rows[rowNum-1] = row
	return nil
}

func (f *fakeRowStore) ApplyStructuralChanges(ctx context.Context, ops []StructuralOp) ([]StructuralResult, error) {
	results := make([]StructuralResult, len(ops))
	for i, op := range ops {
		switch {
		case op.AddTab != nil:
			tab := &fakeTab{name: op.AddTab.Name, gid: f.nextGID}
			f.nextGID++
			f.tabs = append(f.tabs, tab)
			results[i].AddedTab = &TabInfo{Name: tab.name, GID: tab.gid}
		case op.RenameTab != nil:
			tab := f.findTabByGID(op.RenameTab.GID)
			if tab == nil {
				return nil, fmt.Errorf("fake: rename tab gid=%d không tồn tại", op.RenameTab.GID)
			}
			tab.name = op.RenameTab.NewName
		case op.SetValidation != nil:
			f.validations[op.SetValidation.GID] = append([]string{}, op.SetValidation.Allowed...)
		default:
			return nil, fmt.Errorf("fake: op rỗng")
		}
	}
	return results, nil
}
