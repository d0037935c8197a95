package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smart_travel/internal/common"
	"smart_travel/internal/logger"
)

// Ledger là facade của sổ tư vấn. Mọi caller (API handler, chatbot intake)
// đi qua đây thay vì chạm trực tiếp vào RowStore.
//
// Khi thiếu cấu hình (spreadsheet id hoặc credential), ledger chạy ở chế độ
// no-op: đọc trả danh sách rỗng, ghi trả false - KHÔNG làm sập process chủ,
// vì ghi sổ luôn là side channel best-effort của nghiệp vụ chính.
type Ledger struct {
	store      RowStore
	partitions *PartitionManager
	cache      *ReadCache
	engine     *UpsertEngine

	disabledWarn sync.Once
}

// New tạo Ledger trên một RowStore đã sẵn sàng. now=nil thì dùng time.Now;
// test truyền clock cố định để kiểm soát tên partition và TTL cache.
func New(store RowStore, now func() time.Time) *Ledger {
	partitions := NewPartitionManager(store, now)
	cache := NewReadCache(now)
	return &Ledger{
		store:      store,
		partitions: partitions,
		cache:      cache,
		engine:     NewUpsertEngine(store, partitions, cache, now),
	}
}

// NewDisabled tạo Ledger ở chế độ no-op
func NewDisabled() *Ledger {
	return &Ledger{}
}

// NewFromConfig khởi tạo Ledger từ cấu hình. Thiếu spreadsheet id hoặc
// credential thì trả về ledger no-op (không lỗi); credential có nhưng không
// parse được thì trả lỗi để caller quyết định.
func NewFromConfig(ctx context.Context, spreadsheetID string, credentialsFile string, credentialsBlob string) (*Ledger, error) {
	if spreadsheetID == "" || (credentialsFile == "" && credentialsBlob == "") {
		logger.GetAppLogger().WithError(common.ErrLedgerNotConfigured).
			Warn("Ledger chưa cấu hình SHEET_ID/SHEET_CREDENTIALS - chạy ở chế độ no-op")
		return NewDisabled(), nil
	}

	credsJSON, err := ResolveCredentialsJSON(ctx, credentialsFile, credentialsBlob)
	if err != nil {
		return nil, err
	}

	store, err := NewSheetsRowStore(ctx, spreadsheetID, credsJSON)
	if err != nil {
		return nil, fmt.Errorf("khởi tạo row store: %w", err)
	}

	return New(store, nil), nil
}

// Enabled cho biết ledger có backing store hay đang chạy no-op
func (l *Ledger) Enabled() bool {
	return l.store != nil
}

// warnDisabled log đúng một lần khi có caller chạm vào ledger no-op
func (l *Ledger) warnDisabled() {
	l.disabledWarn.Do(func() {
		logger.GetAppLogger().WithError(common.ErrLedgerNotConfigured).
			Warn("Ledger đang ở chế độ no-op: đọc trả rỗng, ghi trả false")
	})
}

// Engine expose UpsertEngine để chỉnh cờ heuristic (MatchNameFallback)
func (l *Ledger) Engine() *UpsertEngine {
	return l.engine
}

// List trả về danh sách record đã flatten mọi partition, dedup theo identity
// (giữ record mới nhất của mỗi khách), sort mới nhất trước.
// forceRefresh=false thì dùng cache nếu còn hạn 60 giây.
// Scan lỗi thì trả snapshot cũ (nếu có) thay vì propagate lỗi - với đường
// đọc này, dữ liệu cũ vẫn tốt hơn là không có gì.
func (l *Ledger) List(ctx context.Context, forceRefresh bool) []ConsultationRecord {
	if !l.Enabled() {
		l.warnDisabled()
		return nil
	}

	if !forceRefresh {
		if cached, ok := l.cache.Get(); ok {
			return cached
		}
	}

	start := time.Now()
	records, err := l.fullScan(ctx)
	if err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"code":  common.ErrCodeLedgerRead.Code,
			"error": err.Error(),
		}).Warn("Full scan ledger thất bại, dùng lại snapshot cũ")
		if stale, ok := l.cache.GetStale(); ok {
			return stale
		}
		return nil
	}

	deduped := dedupeNewestFirst(records)
	l.cache.Put(deduped)

	// Full scan là call đắt nhất của hệ thống (N+1 request tới Sheets),
	// ghi lại thời gian để theo dõi khi số partition tăng theo tháng
	logger.GetPerformanceLogger().WithFields(map[string]interface{}{
		"op":         "full_scan",
		"records":    len(deduped),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Quét toàn bộ sổ tư vấn")
	return deduped
}

// fullScan đọc toàn bộ dòng dữ liệu của mọi partition và decode,
// gắn kèm metadata vị trí (partition, row index) cho từng record.
func (l *Ledger) fullScan(ctx context.Context) ([]ConsultationRecord, error) {
	partitions, err := l.partitions.FindAllPartitions(ctx)
	if err != nil {
		return nil, err
	}

	var records []ConsultationRecord
	for _, p := range partitions {
		rows, err := l.store.ReadRange(ctx, p.Name, dataRange)
		if err != nil {
			return nil, fmt.Errorf("đọc partition %s: %w", p.Name, err)
		}
		for i, row := range rows {
			r := DecodeRecord(row)
			r.PartitionName = p.Name
			r.PartitionGID = p.GID
			r.RowIndex = i + 2
			records = append(records, r)
		}
	}
	return records, nil
}

// dedupeNewestFirst sort record mới nhất trước rồi gộp trùng theo identity key,
// giữ record đầu tiên gặp được (tức bản mới nhất của mỗi khách).
func dedupeNewestFirst(records []ConsultationRecord) []ConsultationRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	seen := make(map[string]bool, len(records))
	out := make([]ConsultationRecord, 0, len(records))
	for _, r := range records {
		key := r.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// ListByIdentity trả về lịch sử tư vấn của một số điện thoại trên mọi
// partition, sort cũ nhất trước. Phone trivial thì trả rỗng - không đoán
// khách theo tên ở đường đọc lịch sử.
func (l *Ledger) ListByIdentity(ctx context.Context, phone string) []ConsultationRecord {
	if !l.Enabled() {
		l.warnDisabled()
		return nil
	}
	if IsTrivialPhone(phone) {
		return nil
	}

	normalized := NormalizePhone(phone)

	records, err := l.fullScan(ctx)
	if err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"code":  common.ErrCodeLedgerRead.Code,
			"phone": normalized,
			"error": err.Error(),
		}).Warn("Đọc lịch sử tư vấn thất bại")
		return nil
	}

	var history []ConsultationRecord
	for _, r := range records {
		if NormalizePhone(r.CustomerPhone) == normalized {
			history = append(history, r)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history
}

// Upsert ghi record vào sổ theo identity: xóa dòng cũ nếu có, append dòng mới
// vào partition tháng hiện tại. Trả false khi thất bại - caller không được
// coi đây là lỗi chặn nghiệp vụ chính.
func (l *Ledger) Upsert(ctx context.Context, record ConsultationRecord) bool {
	if !l.Enabled() {
		l.warnDisabled()
		return false
	}
	if err := l.engine.Upsert(ctx, record); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"identity": record.IdentityKey(),
			"error":    err.Error(),
		}).Error("Upsert vào ledger thất bại")
		return false
	}
	return true
}

// Append ghi record mới không qua bước tìm kiếm, dùng cho lần chạm đầu tiên
func (l *Ledger) Append(ctx context.Context, record ConsultationRecord) bool {
	if !l.Enabled() {
		l.warnDisabled()
		return false
	}
	if err := l.engine.Append(ctx, record); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"identity": record.IdentityKey(),
			"error":    err.Error(),
		}).Error("Append vào ledger thất bại")
		return false
	}
	return true
}

// DeleteAt xóa một dòng theo tên partition và row index (1-based, dòng 1
// là header nên rowIndex hợp lệ bắt đầu từ 2). Đây là đường xóa hành chính
// duy nhất - nghiệp vụ thường không hard-delete record.
func (l *Ledger) DeleteAt(ctx context.Context, partitionName string, rowIndex int) bool {
	if !l.Enabled() {
		l.warnDisabled()
		return false
	}
	if rowIndex < 2 {
		return false
	}

	gid, ok := l.findPartitionGID(ctx, partitionName)
	if !ok {
		return false
	}

	start := int64(rowIndex - 1)
	if err := l.store.DeleteRows(ctx, gid, start, start+1); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"partition": partitionName,
			"row_index": rowIndex,
			"error":     err.Error(),
		}).Error("Xóa dòng ledger thất bại")
		return false
	}

	l.cache.Invalidate()
	return true
}

// SetStatus ghi đè cột trạng thái của một dòng. Status phải thuộc enum
// tư vấn (needs_admin được phép dù không nằm trong validation của sheet).
func (l *Ledger) SetStatus(ctx context.Context, partitionName string, rowIndex int, status string) bool {
	if !l.Enabled() {
		l.warnDisabled()
		return false
	}
	if rowIndex < 2 || !ValidStatus(status) {
		return false
	}

	// Cột trạng thái là cột thứ 11, tức cột K theo A1 notation
	cellRef := fmt.Sprintf("K%d", rowIndex)
	if err := l.store.UpdateCell(ctx, partitionName, cellRef, status); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"partition": partitionName,
			"row_index": rowIndex,
			"status":    status,
			"error":     err.Error(),
		}).Error("Cập nhật trạng thái trên ledger thất bại")
		return false
	}

	l.cache.Invalidate()
	return true
}

// findPartitionGID tra gid của partition theo tên hiển thị
func (l *Ledger) findPartitionGID(ctx context.Context, partitionName string) (int64, bool) {
	tabs, err := l.store.ListTabs(ctx)
	if err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"partition": partitionName,
			"error":     err.Error(),
		}).Error("Không tra được gid của partition")
		return 0, false
	}
	for _, tab := range tabs {
		if tab.Name == partitionName {
			return tab.GID, true
		}
	}
	return 0, false
}
