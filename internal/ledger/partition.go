package ledger

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"smart_travel/internal/logger"
)

// Partition là một tab giữ các dòng của một tháng
type Partition struct {
	Name string // Tên tab, dạng YYYY-MM (hoặc tên legacy khi chưa migrate)
	GID  int64  // Numeric id của tab
}

// monthTabPattern match tên partition dạng YYYY-MM strict
var monthTabPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// legacyTabNames là hai tên tab mặc định của Google Sheets mà spreadsheet cũ
// có thể còn giữ. Tab này được migrate lazy: rename thành tháng hiện tại
// ở lần ghi đầu tiên (không tạo tab mới để khỏi orphan dữ liệu cũ trong đó).
var legacyTabNames = []string{"Sheet1", "Trang tính1"}

// PartitionManager map tháng dương lịch sang tab, tạo tab khi cần
// (kèm header và validation rule), xử lý migrate tab legacy.
type PartitionManager struct {
	store RowStore
	now   func() time.Time // Clock inject được để test deterministic
}

// NewPartitionManager tạo PartitionManager. now=nil thì dùng time.Now.
func NewPartitionManager(store RowStore, now func() time.Time) *PartitionManager {
	if now == nil {
		now = time.Now
	}
	return &PartitionManager{store: store, now: now}
}

// CurrentMonthKey trả về key tháng hiện tại dạng YYYY-MM
func (pm *PartitionManager) CurrentMonthKey() string {
	return pm.now().Format("2006-01")
}

// isLegacyTab kiểm tra tên tab có phải tab mặc định chưa migrate không
func isLegacyTab(name string) bool {
	for _, legacy := range legacyTabNames {
		if name == legacy {
			return true
		}
	}
	return false
}

// FindCurrentForRead trả về partition "hiện tại" cho đường đọc:
// tab YYYY-MM lớn nhất theo thứ tự chuỗi (format này sort đúng theo thời gian),
// fallback sang tab legacy mà KHÔNG rename (đường đọc không gây side effect).
func (pm *PartitionManager) FindCurrentForRead(ctx context.Context) (Partition, error) {
	tabs, err := pm.store.ListTabs(ctx)
	if err != nil {
		return Partition{}, fmt.Errorf("tìm partition hiện tại: %w", err)
	}

	var best *TabInfo
	for i := range tabs {
		if !monthTabPattern.MatchString(tabs[i].Name) {
			continue
		}
		if best == nil || tabs[i].Name > best.Name {
			best = &tabs[i]
		}
	}
	if best != nil {
		return Partition{Name: best.Name, GID: best.GID}, nil
	}

	for _, tab := range tabs {
		if isLegacyTab(tab.Name) {
			return Partition{Name: tab.Name, GID: tab.GID}, nil
		}
	}

	return Partition{}, fmt.Errorf("spreadsheet không có partition nào")
}

// EnsureCurrentPartition trả về partition của tháng wall-clock hiện tại cho đường ghi,
// tạo mới nếu chưa có. Thứ tự ưu tiên:
//  1. tab trùng tên tháng hiện tại đã tồn tại
//  2. tab legacy tồn tại: rename in-place thành tháng hiện tại (một lần duy nhất,
//     giữ nguyên gid và dữ liệu cũ trong tab)
//  3. tạo tab mới với header 15 cột + validation rule cột trạng thái
func (pm *PartitionManager) EnsureCurrentPartition(ctx context.Context) (Partition, error) {
	monthKey := pm.CurrentMonthKey()

	tabs, err := pm.store.ListTabs(ctx)
	if err != nil {
		return Partition{}, fmt.Errorf("ensure partition %s: %w", monthKey, err)
	}

	for _, tab := range tabs {
		if tab.Name == monthKey {
			return Partition{Name: tab.Name, GID: tab.GID}, nil
		}
	}

	for _, tab := range tabs {
		if isLegacyTab(tab.Name) {
			// Rename thay vì tạo mới: tab legacy có thể đang giữ dữ liệu lịch sử
			_, err := pm.store.ApplyStructuralChanges(ctx, []StructuralOp{
				{RenameTab: &RenameTabOp{GID: tab.GID, NewName: monthKey}},
			})
			if err != nil {
				return Partition{}, fmt.Errorf("rename tab legacy %q thành %s: %w", tab.Name, monthKey, err)
			}
			logger.GetAppLogger().WithFields(map[string]interface{}{
				"legacy_tab": tab.Name,
				"gid":        tab.GID,
				"month":      monthKey,
			}).Info("Đã migrate tab legacy thành partition tháng hiện tại")
			return Partition{Name: monthKey, GID: tab.GID}, nil
		}
	}

	return pm.createPartition(ctx, monthKey)
}

// createPartition tạo tab mới cho monthKey, ghi header và gắn validation rule.
// Ba bước là ba network call độc lập; fail giữa chừng để lại tab thiếu header
// hoặc thiếu validation - lần append sau vẫn dùng được tab, chấp nhận được.
func (pm *PartitionManager) createPartition(ctx context.Context, monthKey string) (Partition, error) {
	results, err := pm.store.ApplyStructuralChanges(ctx, []StructuralOp{
		{AddTab: &AddTabOp{Name: monthKey}},
	})
	if err != nil {
		return Partition{}, fmt.Errorf("tạo partition %s: %w", monthKey, err)
	}
	if len(results) == 0 || results[0].AddedTab == nil {
		return Partition{}, fmt.Errorf("tạo partition %s: không nhận được gid của tab mới", monthKey)
	}
	created := *results[0].AddedTab

	if err := pm.store.AppendRow(ctx, created.Name, "A1", HeaderRow); err != nil {
		return Partition{}, fmt.Errorf("ghi header cho partition %s: %w", monthKey, err)
	}

	_, err = pm.store.ApplyStructuralChanges(ctx, []StructuralOp{
		{SetValidation: &SetValidationOp{
			GID:         created.GID,
			ColumnIndex: StatusColumnIndex,
			Allowed:     SheetStatusList,
		}},
	})
	if err != nil {
		return Partition{}, fmt.Errorf("gắn validation cho partition %s: %w", monthKey, err)
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"partition": monthKey,
		"gid":       created.GID,
	}).Info("Đã tạo partition tháng mới")

	return Partition{Name: created.Name, GID: created.GID}, nil
}

// FindAllPartitions trả về mọi tab YYYY-MM (sort tăng dần theo tên),
// hoặc danh sách một phần tử là tab legacy khi chưa có tab tháng nào.
func (pm *PartitionManager) FindAllPartitions(ctx context.Context) ([]Partition, error) {
	tabs, err := pm.store.ListTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("liệt kê partition: %w", err)
	}

	var partitions []Partition
	for _, tab := range tabs {
		if monthTabPattern.MatchString(tab.Name) {
			partitions = append(partitions, Partition{Name: tab.Name, GID: tab.GID})
		}
	}
	if len(partitions) > 0 {
		sort.Slice(partitions, func(i, j int) bool { return partitions[i].Name < partitions[j].Name })
		return partitions, nil
	}

	for _, tab := range tabs {
		if isLegacyTab(tab.Name) {
			return []Partition{{Name: tab.Name, GID: tab.GID}}, nil
		}
	}

	return nil, nil
}
