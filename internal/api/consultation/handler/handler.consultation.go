// Package consultationhdl - handler cho dashboard tư vấn: danh sách đã đối soát,
// lịch sử theo số điện thoại và các thao tác ghi lên sổ.
package consultationhdl

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"

	basehdl "smart_travel/internal/api/base/handler"
	consultationdto "smart_travel/internal/api/consultation/dto"
	consultationsvc "smart_travel/internal/api/consultation/service"
	"smart_travel/internal/common"
	"smart_travel/internal/global"
	"smart_travel/internal/ledger"
	"smart_travel/internal/logger"
)

// ConsultationHandler xử lý các endpoint tư vấn
type ConsultationHandler struct {
	service *consultationsvc.ConsultationService
}

// NewConsultationHandler tạo mới ConsultationHandler
func NewConsultationHandler() *ConsultationHandler {
	return &ConsultationHandler{
		service: consultationsvc.NewConsultationService(),
	}
}

// List trả về danh sách tư vấn đã merge với visitor store.
// Query: refresh (bỏ qua cache), status, q (tìm mờ), limit.
func (h *ConsultationHandler) List(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var query consultationdto.ConsultationListQuery
		if err := c.Bind().Query(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		if err := global.Validate.Struct(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Tham số lọc không hợp lệ",
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		result := h.service.List(c.Context(), query.Refresh, ledger.MergeFilter{
			Status: query.Status,
			Query:  query.Q,
			Limit:  query.Limit,
		})
		basehdl.HandleResponse(c, result, nil)
		return nil
	})
}

// History trả về toàn bộ lượt tư vấn của một số điện thoại, cũ nhất trước
func (h *ConsultationHandler) History(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var query consultationdto.ConsultationHistoryQuery
		if err := c.Bind().Query(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		if err := global.Validate.Struct(&query); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Thiếu số điện thoại",
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		basehdl.HandleResponse(c, h.service.History(c.Context(), query.Phone), nil)
		return nil
	})
}

// Upsert ghi một record tư vấn lên sổ (và mirror visitor nếu có stableId).
// Sổ không cấu hình hoặc ghi fail trả saved=false chứ không trả lỗi 5xx.
func (h *ConsultationHandler) Upsert(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var req consultationdto.ConsultationUpsertRequest
		if err := c.Bind().Body(&req); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		if err := global.Validate.Struct(&req); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Dữ liệu tư vấn không hợp lệ",
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		saved, mirrored, _ := h.service.Upsert(c.Context(), ledger.ConsultationRecord{
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Destination:   req.Destination,
			DepartureDate: req.DepartureDate,
			ReturnDate:    req.ReturnDate,
			Duration:      req.Duration,
			ProductName:   req.ProductName,
			ProductURL:    req.ProductURL,
			Summary:       req.Summary,
			Status:        req.Status,
			NextFollowup:  req.NextFollowup,
			BalanceDue:    req.BalanceDue,
			NoticeDate:    req.NoticeDate,
			SourceChannel: req.SourceChannel,
		}, req.StableID)

		logger.LogCRUD("upsert", "consultation", ledger.NormalizePhone(req.CustomerPhone), c, map[string]interface{}{
			"saved":            saved,
			"visitor_mirrored": mirrored,
		})
		basehdl.HandleResponse(c, fiber.Map{
			"saved":           saved,
			"visitorMirrored": mirrored,
		}, nil)
		return nil
	})
}

// SetStatus đổi trạng thái một dòng trên sổ
func (h *ConsultationHandler) SetStatus(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		var req consultationdto.ConsultationStatusRequest
		if err := c.Bind().Body(&req); err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}
		if err := global.Validate.Struct(&req); err != nil {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Yêu cầu đổi trạng thái không hợp lệ",
				common.StatusBadRequest,
				err.Error(),
			))
			return nil
		}

		updated := h.service.SetStatus(c.Context(), req.Partition, req.RowIndex, req.Status)

		logger.LogCRUD("set_status", "consultation", fmt.Sprintf("%s:%d", req.Partition, req.RowIndex), c, map[string]interface{}{
			"status":  req.Status,
			"updated": updated,
		})
		basehdl.HandleResponse(c, fiber.Map{"updated": updated}, nil)
		return nil
	})
}

// DeleteAt xóa một dòng trên sổ theo partition + rowIndex, kèm dọn visitor mồ côi
func (h *ConsultationHandler) DeleteAt(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		partition := c.Params("partition")
		rowIndex, err := strconv.Atoi(c.Params("rowIndex"))
		if partition == "" || err != nil || rowIndex < 2 {
			basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Vị trí dòng không hợp lệ",
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		deleted := h.service.DeleteAt(c.Context(), partition, rowIndex)

		logger.LogCRUD("delete", "consultation", fmt.Sprintf("%s:%d", partition, rowIndex), c, map[string]interface{}{
			"deleted": deleted,
		})
		basehdl.HandleResponse(c, fiber.Map{"deleted": deleted}, nil)
		return nil
	})
}
