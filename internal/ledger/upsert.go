package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smart_travel/internal/common"
	"smart_travel/internal/logger"
)

// dataRange là range đọc toàn bộ dòng dữ liệu của một partition (bỏ header)
const dataRange = "A2:O"

// UpsertEngine thực hiện upsert theo identity: tìm dòng cũ của cùng khách
// trên mọi partition, xóa nó, rồi append dòng mới vào partition tháng hiện tại.
// Không có lock giữa xóa và ghi - hai upsert đồng thời cho cùng identity
// có thể tạo dòng trùng, risk này được chấp nhận và log lại thay vì loại bỏ.
type UpsertEngine struct {
	store      RowStore
	partitions *PartitionManager
	cache      *ReadCache
	now        func() time.Time

	// MatchNameFallback bật heuristic match theo tên khi cả hai phone đều trivial.
	// Tắt đi nếu dữ liệu có nhiều khách trùng tên chưa để lại số điện thoại.
	MatchNameFallback bool
}

// NewUpsertEngine tạo UpsertEngine. now=nil thì dùng time.Now.
func NewUpsertEngine(store RowStore, partitions *PartitionManager, cache *ReadCache, now func() time.Time) *UpsertEngine {
	if now == nil {
		now = time.Now
	}
	return &UpsertEngine{
		store:             store,
		partitions:        partitions,
		cache:             cache,
		now:               now,
		MatchNameFallback: true,
	}
}

// matchedRow là dòng cũ tìm thấy của một identity
type matchedRow struct {
	record    ConsultationRecord
	partition Partition
	rowIndex  int // 1-based trên sheet, dòng 1 là header
}

// findExisting quét tìm dòng gần nhất của cùng identity: duyệt partition
// từ mới về cũ, trong mỗi partition duyệt từ dòng cuối ngược lên đầu
// (dòng append sau nằm dưới nên gặp trước). Gặp match đầu tiên là dừng,
// không quét tiếp sang partition cũ hơn.
func (e *UpsertEngine) findExisting(ctx context.Context, incoming *ConsultationRecord) (*matchedRow, error) {
	partitions, err := e.partitions.FindAllPartitions(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(partitions) - 1; i >= 0; i-- {
		p := partitions[i]
		rows, err := e.store.ReadRange(ctx, p.Name, dataRange)
		if err != nil {
			return nil, fmt.Errorf("quét partition %s: %w", p.Name, err)
		}

		for j := len(rows) - 1; j >= 0; j-- {
			stored := DecodeRecord(rows[j])
			if !e.matches(incoming, &stored) {
				continue
			}
			stored.PartitionName = p.Name
			stored.PartitionGID = p.GID
			stored.RowIndex = j + 2 // +1 vì header, +1 vì index 1-based
			return &matchedRow{record: stored, partition: p, rowIndex: j + 2}, nil
		}
	}

	return nil, nil
}

// matches áp dụng heuristic identity của SameIdentity, có xét cờ MatchNameFallback
func (e *UpsertEngine) matches(incoming *ConsultationRecord, stored *ConsultationRecord) bool {
	phone := NormalizePhone(incoming.CustomerPhone)
	storedPhone := NormalizePhone(stored.CustomerPhone)
	if len(phone) > 5 && phone == storedPhone {
		return true
	}
	if !e.MatchNameFallback {
		return false
	}
	return len(phone) <= 5 && incoming.CustomerName != "" &&
		incoming.CustomerName == stored.CustomerName && len(storedPhone) <= 5
}

// historyAnnotation tạo ghi chú đổi điểm đến để nối vào summary
func historyAnnotation(oldDestination string) string {
	return fmt.Sprintf("[history: previously considered %s]", oldDestination)
}

// annotateDestinationChange nối ghi chú đổi điểm đến vào summary khi điểm đến
// thay đổi so với dòng cũ. Idempotent: ghi chú đã có thì không nối lần hai.
func annotateDestinationChange(incoming *ConsultationRecord, old *ConsultationRecord) {
	if old.Destination == "" || old.Destination == incoming.Destination {
		return
	}
	note := historyAnnotation(old.Destination)
	if strings.Contains(incoming.Summary, note) {
		return
	}
	if incoming.Summary == "" {
		incoming.Summary = note
		return
	}
	incoming.Summary = incoming.Summary + " " + note
}

// Upsert tìm và xóa dòng cũ của cùng identity (nếu có) rồi append dòng mới
// vào partition tháng hiện tại. Record mới luôn nằm cuối partition mới nhất,
// giữ semantics "hoạt động gần nhất sort cuối".
func (e *UpsertEngine) Upsert(ctx context.Context, record ConsultationRecord) error {
	e.prepare(&record)

	existing, err := e.findExisting(ctx, &record)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", record.IdentityKey(), err)
	}

	if existing != nil {
		annotateDestinationChange(&record, &existing.record)

		start := int64(existing.rowIndex - 1) // API xóa theo index 0-based
		if err := e.store.DeleteRows(ctx, existing.partition.GID, start, start+1); err != nil {
			return fmt.Errorf("upsert %s: xóa dòng cũ (partition=%s, row=%d): %w",
				record.IdentityKey(), existing.partition.Name, existing.rowIndex, err)
		}
	}

	if err := e.appendCurrent(ctx, &record); err != nil {
		if existing != nil {
			// Dòng cũ đã xóa nhưng dòng mới chưa ghi được - không có transaction
			// bù, dữ liệu của khách này đang mất khỏi sheet. Log đủ context để
			// khôi phục tay.
			fields := map[string]interface{}{
				"error_code":     common.ErrCodeLedgerDataLoss,
				"identity":       record.IdentityKey(),
				"customer_name":  record.CustomerName,
				"customer_phone": record.CustomerPhone,
				"old_partition":  existing.partition.Name,
				"old_row_index":  existing.rowIndex,
				"old_summary":    existing.record.Summary,
				"error":          err.Error(),
			}
			logger.GetAppLogger().WithFields(fields).Error("NGUY CƠ MẤT DỮ LIỆU: đã xóa dòng cũ nhưng append dòng mới thất bại")
			logger.GetErrorLogger().WithFields(fields).Error("NGUY CƠ MẤT DỮ LIỆU: đã xóa dòng cũ nhưng append dòng mới thất bại")
		}
		return fmt.Errorf("upsert %s: %w", record.IdentityKey(), err)
	}

	e.cache.Invalidate()
	return nil
}

// Append là đường ghi không tìm kiếm, dùng khi caller biết chắc khách chưa có
// record cũ (lần chạm đầu tiên). Bỏ qua toàn bộ bước quét và xóa.
func (e *UpsertEngine) Append(ctx context.Context, record ConsultationRecord) error {
	e.prepare(&record)

	if err := e.appendCurrent(ctx, &record); err != nil {
		return fmt.Errorf("append %s: %w", record.IdentityKey(), err)
	}

	e.cache.Invalidate()
	return nil
}

// prepare chuẩn hóa record trước khi ghi: timestamp luôn là "now"
// (upsert = dòng mới), status và kênh nguồn nhận giá trị mặc định nếu trống.
func (e *UpsertEngine) prepare(record *ConsultationRecord) {
	record.CreatedAt = e.now()
	if record.Status == "" {
		record.Status = StatusConsulting
	}
	if record.SourceChannel == "" {
		record.SourceChannel = DefaultSourceChannel
	}
}

// appendCurrent resolve/tạo partition tháng hiện tại rồi append record vào cuối
func (e *UpsertEngine) appendCurrent(ctx context.Context, record *ConsultationRecord) error {
	partition, err := e.partitions.EnsureCurrentPartition(ctx)
	if err != nil {
		return err
	}
	if err := e.store.AppendRow(ctx, partition.Name, "A1", EncodeRecord(record)); err != nil {
		return fmt.Errorf("append vào partition %s: %w", partition.Name, err)
	}
	return nil
}
