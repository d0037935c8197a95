// Script backfill bảng visitors từ sổ tư vấn trên Google Sheets.
// Dùng khi visitor store được bật sau khi sổ đã có dữ liệu: những khách
// chỉ có trên sổ sẽ được tạo visitor với id tạm (tmp_<phone>_<unix>).
//
// Chạy: go run scripts/backfill_visitors/main.go
// Cần: SHEET_ID, SHEET_CREDENTIALS (hoặc SHEET_CREDENTIALS_FILE), MYSQL_DSN
// (từ .env hoặc env vars)
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	visitormodels "smart_travel/internal/api/visitor/models"
	visitorsvc "smart_travel/internal/api/visitor/service"
	"smart_travel/internal/database"
	"smart_travel/internal/ledger"
)

func loadScriptEnv() {
	tryPaths := []string{
		".env",
		"config/env/development.env",
	}
	cwd, _ := os.Getwd()
	for _, p := range tryPaths {
		full := filepath.Join(cwd, p)
		if _, err := os.Stat(full); err == nil {
			_ = godotenv.Load(full)
			return
		}
	}
}

func main() {
	fmt.Println("=== Backfill Visitors Từ Sổ Tư Vấn ===")

	loadScriptEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	l, err := ledger.NewFromConfig(ctx, os.Getenv("SHEET_ID"), os.Getenv("SHEET_CREDENTIALS_FILE"), os.Getenv("SHEET_CREDENTIALS"))
	if err != nil {
		log.Fatalf("Không khởi tạo được ledger: %v", err)
	}
	if !l.Enabled() {
		log.Fatal("Cần set SHEET_ID và SHEET_CREDENTIALS (hoặc SHEET_CREDENTIALS_FILE)")
	}

	db, err := database.GetMySQLInstance(os.Getenv("MYSQL_DSN"))
	if err != nil || db == nil {
		log.Fatalf("Cần MYSQL_DSN hợp lệ để backfill: %v", err)
	}
	visitors := visitorsvc.NewVisitorServiceWithDB(db)

	records := l.List(ctx, true)
	fmt.Printf("Đọc được %d record từ sổ\n", len(records))

	created, skipped := 0, 0
	for i := range records {
		r := &records[i]
		if ledger.IsTrivialPhone(r.CustomerPhone) {
			// Không có phone thật thì không tra được visitor, bỏ qua
			skipped++
			continue
		}
		if _, err := visitors.FindByPhone(ctx, r.CustomerPhone); err == nil {
			skipped++
			continue
		}

		v := visitormodels.Visitor{
			StableID:      fmt.Sprintf("tmp_%s_%d", ledger.NormalizePhone(r.CustomerPhone), r.CreatedAt.Unix()),
			CustomerName:  r.CustomerName,
			CustomerPhone: r.CustomerPhone,
			Destination:   r.Destination,
			ProductName:   r.ProductName,
			DepartureDate: r.DepartureDate,
			URL:           r.ProductURL,
			Status:        r.Status,
			Summary:       r.Summary,
		}
		if err := visitors.Upsert(ctx, v); err != nil {
			log.Printf("Lỗi upsert visitor %s: %v", v.StableID, err)
			continue
		}
		created++
	}

	fmt.Printf("Hoàn tất: tạo %d visitor, bỏ qua %d record\n", created, skipped)
}
