package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"smart_travel/config"
	chatbotmodels "smart_travel/internal/api/chatbot/models"
	"smart_travel/internal/database"
	"smart_travel/internal/global"
	"smart_travel/internal/ledger"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối MongoDB (chat messages + webhook logs)
	initDatabase_MySQL()   // Khởi tạo kết nối MySQL (visitor store, optional)
	initLedger()           // Khởi tạo sổ tư vấn trên Google Sheets (optional)
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.ChatMessages = "chat_messages"
	global.MongoDB_ColNames.WebhookLogs = "webhook_logs"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (global.InitValidator đăng ký custom validators: no_xss, consult_status, month_key)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối MongoDB
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	// Khởi tạo db và collections nếu chưa có
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session); err != nil {
		logrus.Fatalf("Failed to ensure database and collections: %v", err)
	}
	logrus.Info("Ensured database and collections")

	// Khởi tạo index cho các collection
	dbName := global.ServerConfig.MongoDB_DBName
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.ChatMessages), chatbotmodels.ChatMessage{})
	database.CreateIndexes(context.TODO(), global.MongoDB_Session.Database(dbName).Collection(global.MongoDB_ColNames.WebhookLogs), chatbotmodels.WebhookLog{})
}

// Hàm khởi tạo kết nối MySQL. DSN trống thì visitor store bị tắt,
// server vẫn chạy (merge sẽ chỉ dùng sổ tư vấn).
func initDatabase_MySQL() {
	db, err := database.GetMySQLInstance(global.ServerConfig.MySQL_DSN)
	if err != nil {
		logrus.Errorf("Failed to connect MySQL, visitor store disabled: %v", err)
		return
	}
	global.MySQL_Session = db
}

// Hàm khởi tạo sổ tư vấn. Thiếu cấu hình hoặc lỗi credential thì chạy
// ở chế độ no-op thay vì chặn server - ghi sổ là side channel.
func initLedger() {
	cfg := global.ServerConfig
	l, err := ledger.NewFromConfig(context.Background(), cfg.SheetID, cfg.SheetCredentialsFile, cfg.SheetCredentials)
	if err != nil {
		logrus.Errorf("Failed to initialize ledger, running in no-op mode: %v", err)
		global.Ledger = ledger.NewDisabled()
		return
	}
	global.Ledger = l
	if l.Enabled() {
		logrus.Info("Initialized consultation ledger (Google Sheets)")
	}
}
