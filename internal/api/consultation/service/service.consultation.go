// Package consultationsvc chứa service cho domain Consultation: ghép sổ tư vấn
// trên Google Sheets với visitor store để ra danh sách khách đang tư vấn.
package consultationsvc

import (
	"context"

	visitormodels "smart_travel/internal/api/visitor/models"
	visitorsvc "smart_travel/internal/api/visitor/service"
	"smart_travel/internal/global"
	"smart_travel/internal/ledger"
	"smart_travel/internal/logger"
)

// ConsultationService điều phối giữa sổ tư vấn và visitor store
type ConsultationService struct {
	ledger   *ledger.Ledger
	visitors *visitorsvc.VisitorService
}

// NewConsultationService tạo mới ConsultationService trên các kết nối global
func NewConsultationService() *ConsultationService {
	return NewConsultationServiceWith(global.Ledger, visitorsvc.NewVisitorService())
}

// NewConsultationServiceWith tạo ConsultationService với dependency truyền vào,
// dùng cho test
func NewConsultationServiceWith(l *ledger.Ledger, v *visitorsvc.VisitorService) *ConsultationService {
	return &ConsultationService{ledger: l, visitors: v}
}

// List trả về danh sách tư vấn đã đối soát giữa sổ và visitor store.
// Visitor store lỗi hoặc không cấu hình thì merge chạy ledger-only,
// cùng kiểu degrade với chính ledger.
func (s *ConsultationService) List(ctx context.Context, forceRefresh bool, filter ledger.MergeFilter) []ledger.MergedRecord {
	ledgerRecords := s.ledger.List(ctx, forceRefresh)

	secondary, err := s.visitors.SecondaryRecords(ctx)
	if err != nil {
		logger.GetAppLogger().WithError(err).Warn("Đọc visitor store thất bại, đối soát chỉ dùng sổ tư vấn")
		secondary = nil
	}

	return ledger.Reconcile(ledgerRecords, secondary, filter)
}

// History trả về lịch sử tư vấn của một số điện thoại, cũ nhất trước
func (s *ConsultationService) History(ctx context.Context, phone string) []ledger.ConsultationRecord {
	return s.ledger.ListByIdentity(ctx, phone)
}

// Upsert ghi record vào sổ và mirror sang visitor store khi biết stable id.
// Mirror đi thẳng qua upsert của visitor store (tạo mới nếu chưa có dòng)
// nên stable id chưa từng thấy vẫn được mirror chứ không bị bỏ qua âm thầm.
// mirrored chỉ true khi visitor store thực sự ghi xong; sổ fail không chặn
// visitor và ngược lại.
func (s *ConsultationService) Upsert(ctx context.Context, record ledger.ConsultationRecord, stableID string) (ledgerOK bool, mirrored bool, visitorErr error) {
	ledgerOK = s.ledger.Upsert(ctx, record)

	if stableID == "" || !s.visitors.Enabled() {
		return ledgerOK, false, nil
	}

	visitorErr = s.visitors.Upsert(ctx, visitormodels.Visitor{
		StableID:      stableID,
		CustomerName:  record.CustomerName,
		CustomerPhone: record.CustomerPhone,
		Destination:   record.Destination,
		ProductName:   record.ProductName,
		DepartureDate: record.DepartureDate,
		URL:           record.ProductURL,
		Status:        record.Status,
		Summary:       record.Summary,
	})
	if visitorErr != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"stable_id": stableID,
			"error":     visitorErr.Error(),
		}).Warn("Mirror sang visitor store thất bại")
		return ledgerOK, false, visitorErr
	}
	return ledgerOK, true, nil
}

// SetStatus đổi trạng thái một dòng trên sổ
func (s *ConsultationService) SetStatus(ctx context.Context, partition string, rowIndex int, status string) bool {
	return s.ledger.SetStatus(ctx, partition, rowIndex, status)
}

// DeleteAt xóa một dòng trên sổ và dọn visitor mồ côi tương ứng.
// Trước khi xóa phải đọc lại record để biết phone, vì sau khi xóa
// không còn cách nào map dòng sang visitor.
func (s *ConsultationService) DeleteAt(ctx context.Context, partition string, rowIndex int) bool {
	var phone string
	for _, r := range s.ledger.List(ctx, true) {
		if r.PartitionName == partition && r.RowIndex == rowIndex {
			phone = r.CustomerPhone
			break
		}
	}

	if !s.ledger.DeleteAt(ctx, partition, rowIndex) {
		return false
	}

	if phone != "" {
		if visitor, err := s.visitors.FindByPhone(ctx, phone); err == nil {
			if err := s.visitors.Delete(ctx, visitor.StableID); err != nil {
				logger.GetAppLogger().WithFields(map[string]interface{}{
					"stable_id": visitor.StableID,
					"error":     err.Error(),
				}).Warn("Dọn visitor mồ côi thất bại")
			}
		}
	}
	return true
}
