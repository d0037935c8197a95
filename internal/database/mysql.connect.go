package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"smart_travel/internal/logger"
)

// visitorTableDDL tạo bảng visitors nếu chưa có.
// Đây là bảng do chat-bot ghi, keyed theo stable_id; schema phải khớp
// với contract merge ở internal/ledger/merge.go.
const visitorTableDDL = `
CREATE TABLE IF NOT EXISTS visitors (
	stable_id      VARCHAR(64)  NOT NULL,
	customer_name  VARCHAR(255) NOT NULL DEFAULT '',
	customer_phone VARCHAR(64)  NOT NULL DEFAULT '',
	destination    VARCHAR(255) NOT NULL DEFAULT '',
	product_name   VARCHAR(255) NOT NULL DEFAULT '',
	departure_date VARCHAR(32)  NOT NULL DEFAULT '',
	url            TEXT         NOT NULL,
	status         VARCHAR(32)  NOT NULL DEFAULT 'consulting',
	summary        TEXT         NOT NULL,
	updated_at     BIGINT       NOT NULL DEFAULT 0,
	PRIMARY KEY (stable_id),
	KEY idx_visitors_phone (customer_phone),
	KEY idx_visitors_updated (updated_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// GetMySQLInstance mở kết nối MySQL cho visitor store và đảm bảo bảng visitors tồn tại.
// DSN trống trả về (nil, nil): visitor store là optional, merge sẽ chạy ledger-only.
func GetMySQLInstance(dsn string) (*sql.DB, error) {
	if dsn == "" {
		logger.GetAppLogger().Warn("MYSQL_DSN trống, visitor store bị tắt (merge sẽ chỉ dùng sổ tư vấn)")
		return nil, nil
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if _, err := db.ExecContext(ctx, visitorTableDDL); err != nil {
		return nil, fmt.Errorf("failed to ensure visitors table: %w", err)
	}

	logger.GetAppLogger().Info("Successfully connected to MySQL (visitor store)")
	return db, nil
}
