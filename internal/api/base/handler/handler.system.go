package basehdl

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"smart_travel/internal/global"
)

// SystemHandler xử lý các endpoint hệ thống (health check)
type SystemHandler struct {
	startedAt time.Time
}

// NewSystemHandler tạo mới SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{startedAt: time.Now()}
}

// HealthCheck trả về trạng thái các kết nối của service.
// Ledger no-op vẫn là trạng thái hợp lệ (degraded), không phải lỗi.
func (h *SystemHandler) HealthCheck(c fiber.Ctx) error {
	mongoStatus := "connected"
	if global.MongoDB_Session == nil {
		mongoStatus = "disconnected"
	}

	mysqlStatus := "connected"
	if global.MySQL_Session == nil {
		mysqlStatus = "not_configured"
	}

	ledgerStatus := "enabled"
	if global.Ledger == nil || !global.Ledger.Enabled() {
		ledgerStatus = "disabled"
	}

	return JSONResponse(c, fiber.StatusOK, fiber.Map{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).String(),
		"mongodb":   mongoStatus,
		"mysql":     mysqlStatus,
		"ledger":    ledgerStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
