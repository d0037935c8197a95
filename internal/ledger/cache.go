package ledger

import (
	"sync"
	"time"
)

// cacheTTL là thời gian sống của snapshot đọc. Ledger là append-mostly,
// đọc lặp trong một phiên tư vấn không cần thấy dữ liệu mới hơn 1 phút.
const cacheTTL = 60 * time.Second

// ReadCache giữ đúng MỘT snapshot: danh sách record đã flatten + dedup
// của lần full scan thành công gần nhất, kèm thời điểm scan.
type ReadCache struct {
	mu        sync.Mutex
	records   []ConsultationRecord
	has       bool
	fetchedAt time.Time
	now       func() time.Time
}

// NewReadCache tạo cache rỗng. now=nil thì dùng time.Now.
func NewReadCache(now func() time.Time) *ReadCache {
	if now == nil {
		now = time.Now
	}
	return &ReadCache{now: now}
}

// Get trả về snapshot còn hạn, hoặc (nil, false) khi cache rỗng hoặc hết hạn
func (rc *ReadCache) Get() ([]ConsultationRecord, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.has || rc.now().Sub(rc.fetchedAt) >= cacheTTL {
		return nil, false
	}
	return rc.records, true
}

// GetStale trả về snapshot bất kể hết hạn hay chưa. Dùng làm fallback khi
// refresh từ store lỗi: trả dữ liệu cũ kèm warning tốt hơn là trả lỗi
// cho người dùng đang tư vấn.
func (rc *ReadCache) GetStale() ([]ConsultationRecord, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.has {
		return nil, false
	}
	return rc.records, true
}

// Put thay snapshot hiện tại bằng dữ liệu mới scan về
func (rc *ReadCache) Put(records []ConsultationRecord) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.records = records
	rc.has = true
	rc.fetchedAt = rc.now()
}

// Invalidate xoá snapshot. Gọi sau mọi thao tác ghi để lần đọc kế tiếp
// thấy ngay dữ liệu vừa ghi thay vì đợi TTL.
func (rc *ReadCache) Invalidate() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.records = nil
	rc.has = false
	rc.fetchedAt = time.Time{}
}
