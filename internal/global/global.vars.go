package global

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"smart_travel/config"
	"smart_travel/internal/ledger"
	"smart_travel/internal/registry"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	ChatMessages string // Tên collection cho tin nhắn chat-bot
	WebhookLogs  string // Tên collection cho log webhook thô
}

// Các biến toàn cục
var Validate *validator.Validate                // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client               // Phiên kết nối tới MongoDB
var MySQL_Session *sql.DB                       // Kết nối MySQL (visitor store); nil nếu không cấu hình
var ServerConfig *config.Configuration          // Cấu hình của server
var MongoDB_ColNames = MongoDB_CollectionName{} // Tên các collection
var Ledger *ledger.Ledger                       // Sổ tư vấn trên Google Sheets; no-op nếu thiếu cấu hình

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
