package main

import (
	"context"
	"time"

	"smart_travel/internal/global"
	"smart_travel/internal/logger"
)

// InitLedgerWarmup đọc trước sổ tư vấn để làm ấm cache, tránh request
// đầu tiên của dashboard phải chờ full scan qua Sheets API.
// Best-effort: lỗi chỉ log warning, không chặn server khởi động.
func InitLedgerWarmup() {
	log := logger.GetAppLogger()

	if !global.Ledger.Enabled() {
		log.Info("Ledger đang ở chế độ no-op, bỏ qua warm-up")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	records := global.Ledger.List(ctx, true)
	log.WithFields(map[string]interface{}{
		"records": len(records),
	}).Info("Đã làm ấm cache sổ tư vấn")
}
