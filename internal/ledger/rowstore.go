package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"smart_travel/internal/common"
)

// TabInfo là thông tin một tab trong spreadsheet
type TabInfo struct {
	Name string // Tên hiển thị, có thể bị rename
	GID  int64  // Numeric id, không đổi khi rename
}

// AddTabOp thêm một tab mới
type AddTabOp struct {
	Name string
}

// RenameTabOp đổi tên tab theo gid
type RenameTabOp struct {
	GID     int64
	NewName string
}

// SetValidationOp gắn data validation kiểu one-of-list cho một cột của tab,
// áp dụng từ dòng 2 trở đi (dòng 1 là header).
type SetValidationOp struct {
	GID         int64
	ColumnIndex int // 0-based
	Allowed     []string
}

// StructuralOp là một thay đổi cấu trúc; đúng một trong các field khác nil.
type StructuralOp struct {
	AddTab        *AddTabOp
	RenameTab     *RenameTabOp
	SetValidation *SetValidationOp
}

// StructuralResult là kết quả tương ứng với một StructuralOp
type StructuralResult struct {
	AddedTab *TabInfo // Chỉ set cho AddTabOp
}

// RowStore abstract hóa dịch vụ bảng dạng dòng từ xa: đọc range chữ nhật,
// append dòng, xóa dải dòng, cập nhật cell, thay đổi cấu trúc theo batch.
// Không có transaction hay row-level locking - mỗi call là một network call
// độc lập và có thể fail độc lập; caller phải tự xử lý partial state.
//
// Backing store có thể thay thế (test dùng fake in-memory) miễn là giữ nguyên
// semantics partitioning và upsert kiểu xóa-rồi-ghi-lại.
type RowStore interface {
	ListTabs(ctx context.Context) ([]TabInfo, error)
	ReadRange(ctx context.Context, tab string, rangeSpec string) ([][]string, error)
	AppendRow(ctx context.Context, tab string, rangeSpec string, row []string) error
	DeleteRows(ctx context.Context, gid int64, startIndex int64, endIndex int64) error
	UpdateCell(ctx context.Context, tab string, cellRef string, value string) error
	ApplyStructuralChanges(ctx context.Context, ops []StructuralOp) ([]StructuralResult, error)
}

// callTimeout là timeout cho mỗi network call tới Sheets API.
// Timeout khi đọc retry được; timeout khi ghi là ambiguous - không tự retry
// vì append đã thành công nhưng chưa ack sẽ tạo dòng trùng.
const callTimeout = 20 * time.Second

// classifyWriteErr gắn sentinel ambiguous cho lỗi ghi kiểu timeout/cancel:
// request có thể đã tới server rồi nên caller không được tự retry.
// Lỗi khác giữ nguyên để còn phân biệt được lỗi quyền, lỗi not-found.
func classifyWriteErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", common.ErrAmbiguousWrite, err)
	}
	return err
}

// SheetsRowStore là implementation của RowStore trên Google Sheets API v4
type SheetsRowStore struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsRowStore tạo SheetsRowStore từ credential JSON đã resolve
// (xem credentials.go) và spreadsheet id.
func NewSheetsRowStore(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*SheetsRowStore, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("không khởi tạo được Sheets service: %w", err)
	}
	return &SheetsRowStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ListTabs trả về danh sách tab (tên + gid) của spreadsheet
func (s *SheetsRowStore) ListTabs(ctx context.Context) ([]TabInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.sheetId", "sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}

	tabs := make([]TabInfo, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties == nil {
			continue
		}
		tabs = append(tabs, TabInfo{Name: sh.Properties.Title, GID: sh.Properties.SheetId})
	}
	return tabs, nil
}

// ReadRange đọc một range chữ nhật, trả về ma trận string.
// Sheets trả ragged rows (dòng thiếu cột cuối) - caller decode lenient.
func (s *SheetsRowStore) ReadRange(ctx context.Context, tab string, rangeSpec string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("%s!%s", tab, rangeSpec)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s!%s: %w", tab, rangeSpec, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow ghi thêm một dòng vào cuối vùng dữ liệu của tab
func (s *SheetsRowStore) AppendRow(ctx context.Context, tab string, rangeSpec string, row []string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, fmt.Sprintf("%s!%s", tab, rangeSpec),
		&sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row vào %s: %w", tab, classifyWriteErr(err))
	}
	return nil
}

// DeleteRows xóa dải dòng [startIndex, endIndex) của tab theo gid, index 0-based
func (s *SheetsRowStore) DeleteRows(ctx context.Context, gid int64, startIndex int64, endIndex int64) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    gid,
					Dimension:  "ROWS",
					StartIndex: startIndex,
					EndIndex:   endIndex,
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows [%d,%d) của tab gid=%d: %w", startIndex, endIndex, gid, classifyWriteErr(err))
	}
	return nil
}

// UpdateCell ghi đè giá trị một cell (hoặc range nhỏ) theo A1 notation
func (s *SheetsRowStore) UpdateCell(ctx context.Context, tab string, cellRef string, value string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("%s!%s", tab, cellRef),
		&sheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update cell %s!%s: %w", tab, cellRef, classifyWriteErr(err))
	}
	return nil
}

// ApplyStructuralChanges áp dụng các thay đổi cấu trúc trong một batchUpdate request
func (s *SheetsRowStore) ApplyStructuralChanges(ctx context.Context, ops []StructuralOp) ([]StructuralResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	requests := make([]*sheets.Request, 0, len(ops))
	for _, op := range ops {
		switch {
		case op.AddTab != nil:
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: op.AddTab.Name},
				},
			})
		case op.RenameTab != nil:
			requests = append(requests, &sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: op.RenameTab.GID,
						Title:   op.RenameTab.NewName,
					},
					Fields: "title",
				},
			})
		case op.SetValidation != nil:
			values := make([]*sheets.ConditionValue, 0, len(op.SetValidation.Allowed))
			for _, v := range op.SetValidation.Allowed {
				values = append(values, &sheets.ConditionValue{UserEnteredValue: v})
			}
			requests = append(requests, &sheets.Request{
				SetDataValidation: &sheets.SetDataValidationRequest{
					Range: &sheets.GridRange{
						SheetId:          op.SetValidation.GID,
						StartRowIndex:    1, // Bỏ qua header
						StartColumnIndex: int64(op.SetValidation.ColumnIndex),
						EndColumnIndex:   int64(op.SetValidation.ColumnIndex) + 1,
					},
					Rule: &sheets.DataValidationRule{
						Condition: &sheets.BooleanCondition{
							Type:   "ONE_OF_LIST",
							Values: values,
						},
						ShowCustomUi: true,
						Strict:       false,
					},
				},
			})
		default:
			return nil, fmt.Errorf("structural op rỗng tại vị trí %d", len(requests))
		}
	}

	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("apply structural changes: %w", err)
	}

	results := make([]StructuralResult, len(ops))
	for i, reply := range resp.Replies {
		if i >= len(results) {
			break
		}
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			results[i].AddedTab = &TabInfo{
				Name: reply.AddSheet.Properties.Title,
				GID:  reply.AddSheet.Properties.SheetId,
			}
		}
	}
	return results, nil
}
