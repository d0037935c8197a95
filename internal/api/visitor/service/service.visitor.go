// Package visitorsvc chứa service cho domain Visitor (MySQL).
package visitorsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	visitormodels "smart_travel/internal/api/visitor/models"
	"smart_travel/internal/common"
	"smart_travel/internal/global"
	"smart_travel/internal/ledger"
)

// VisitorService truy cập bảng visitors trên MySQL.
// db nil nghĩa là visitor store không được cấu hình: đọc trả rỗng,
// ghi là no-op - cùng kiểu degrade với ledger.
type VisitorService struct {
	db *sql.DB
}

// NewVisitorService tạo VisitorService trên kết nối MySQL global
func NewVisitorService() *VisitorService {
	return &VisitorService{db: global.MySQL_Session}
}

// NewVisitorServiceWithDB tạo VisitorService trên một kết nối cụ thể (test)
func NewVisitorServiceWithDB(db *sql.DB) *VisitorService {
	return &VisitorService{db: db}
}

// Enabled cho biết visitor store có được cấu hình không
func (s *VisitorService) Enabled() bool {
	return s.db != nil
}

const visitorColumns = `stable_id, customer_name, customer_phone, destination, product_name, departure_date, url, status, summary, updated_at`

// scanVisitor đọc một dòng kết quả thành Visitor
func scanVisitor(row interface{ Scan(...interface{}) error }) (visitormodels.Visitor, error) {
	var v visitormodels.Visitor
	var updatedAt int64
	err := row.Scan(&v.StableID, &v.CustomerName, &v.CustomerPhone, &v.Destination,
		&v.ProductName, &v.DepartureDate, &v.URL, &v.Status, &v.Summary, &updatedAt)
	if err != nil {
		return v, err
	}
	v.UpdatedAt = time.UnixMilli(updatedAt)
	return v, nil
}

// List trả về toàn bộ visitor, mới cập nhật trước
func (s *VisitorService) List(ctx context.Context) ([]visitormodels.Visitor, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+visitorColumns+` FROM visitors ORDER BY updated_at DESC`)
	if err != nil {
		return nil, common.NewError(common.ErrCodeDatabaseQuery, "Lỗi truy vấn visitor store", common.StatusInternalServerError, err)
	}
	defer rows.Close()

	var visitors []visitormodels.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, common.NewError(common.ErrCodeDatabaseQuery, "Lỗi đọc dữ liệu visitor", common.StatusInternalServerError, err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.ErrCodeDatabaseQuery, "Lỗi đọc dữ liệu visitor", common.StatusInternalServerError, err)
	}
	return visitors, nil
}

// FindByStableID tìm visitor theo stable id
func (s *VisitorService) FindByStableID(ctx context.Context, stableID string) (visitormodels.Visitor, error) {
	var zero visitormodels.Visitor
	if s.db == nil {
		return zero, common.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+visitorColumns+` FROM visitors WHERE stable_id = ?`, stableID)
	v, err := scanVisitor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, common.ErrNotFound
		}
		return zero, common.NewError(common.ErrCodeDatabaseQuery, "Lỗi truy vấn visitor store", common.StatusInternalServerError, err)
	}
	return v, nil
}

// FindByPhone tìm visitor theo số điện thoại đã chuẩn hóa (lấy bản mới nhất)
func (s *VisitorService) FindByPhone(ctx context.Context, phone string) (visitormodels.Visitor, error) {
	var zero visitormodels.Visitor
	if s.db == nil {
		return zero, common.ErrNotFound
	}

	normalized := ledger.NormalizePhone(phone)
	if normalized == "" {
		return zero, common.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors WHERE customer_phone = ? ORDER BY updated_at DESC LIMIT 1`, normalized)
	v, err := scanVisitor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, common.ErrNotFound
		}
		return zero, common.NewError(common.ErrCodeDatabaseQuery, "Lỗi truy vấn visitor store", common.StatusInternalServerError, err)
	}
	return v, nil
}

// Upsert ghi visitor theo stable id. Phone được chuẩn hóa về chỉ chữ số
// trước khi lưu để index phone dùng được cho đối soát.
func (s *VisitorService) Upsert(ctx context.Context, v visitormodels.Visitor) error {
	if s.db == nil {
		return nil
	}
	if v.StableID == "" {
		return common.ErrRequiredField
	}
	if v.Status == "" {
		v.Status = ledger.StatusConsulting
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO visitors (`+visitorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
	customer_name  = VALUES(customer_name),
	customer_phone = VALUES(customer_phone),
	destination    = VALUES(destination),
	product_name   = VALUES(product_name),
	departure_date = VALUES(departure_date),
	url            = VALUES(url),
	status         = VALUES(status),
	summary        = VALUES(summary),
	updated_at     = VALUES(updated_at)`,
		v.StableID, v.CustomerName, ledger.NormalizePhone(v.CustomerPhone), v.Destination,
		v.ProductName, v.DepartureDate, v.URL, v.Status, v.Summary, v.UpdatedAt.UnixMilli())
	if err != nil {
		return common.NewError(common.ErrCodeDatabaseQuery, "Lỗi ghi visitor store", common.StatusInternalServerError, err)
	}
	return nil
}

// Delete xóa visitor theo stable id (orphan cleanup khi record tư vấn bị xóa)
func (s *VisitorService) Delete(ctx context.Context, stableID string) error {
	if s.db == nil {
		return nil
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE stable_id = ?`, stableID)
	if err != nil {
		return common.NewError(common.ErrCodeDatabaseQuery, "Lỗi xóa visitor", common.StatusInternalServerError, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SecondaryRecords chuyển danh sách visitor thành input cho merge đối soát
func (s *VisitorService) SecondaryRecords(ctx context.Context) ([]ledger.SecondaryRecord, error) {
	visitors, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ledger.SecondaryRecord, 0, len(visitors))
	for _, v := range visitors {
		records = append(records, ledger.SecondaryRecord{
			StableID:      v.StableID,
			CustomerName:  v.CustomerName,
			CustomerPhone: v.CustomerPhone,
			Destination:   v.Destination,
			ProductName:   v.ProductName,
			DepartureDate: v.DepartureDate,
			URL:           v.URL,
			Status:        v.Status,
			Summary:       v.Summary,
			UpdatedAt:     v.UpdatedAt,
		})
	}
	return records, nil
}
