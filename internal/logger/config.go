package logger

import (
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// LogConfig chứa cấu hình cho hệ thống logging
type LogConfig struct {
	Level  string // Log level: debug, info, warn, error
	Format string // Format: json hoặc text
	Output string // Output: file, stdout, both

	LogPath         string // Thư mục chứa log files (relative so với root project)
	AppFile         string // Tên file log chính
	AuditFile       string // Tên file log audit
	PerformanceFile string // Tên file log performance
	ErrorFile       string // Tên file log error

	// Rotation (lumberjack)
	MaxSize    int  // MB mỗi file
	MaxBackups int  // Số file cũ giữ lại
	MaxAge     int  // Số ngày giữ file
	Compress   bool // Nén file cũ

	// Filter: các message chứa một trong các chuỗi này sẽ bị bỏ qua
	// (dùng để loại noise như health check)
	FilterContains []string
}

// DefaultConfig trả về cấu hình mặc định, đọc override từ environment variables
func DefaultConfig() *LogConfig {
	cfg := &LogConfig{
		Level:           getEnvOr("LOG_LEVEL", "info"),
		Format:          getEnvOr("LOG_FORMAT", "text"),
		Output:          getEnvOr("LOG_OUTPUT", "both"),
		LogPath:         getEnvOr("LOG_PATH", "logs"),
		AppFile:         "app.log",
		AuditFile:       "audit.log",
		PerformanceFile: "performance.log",
		ErrorFile:       "error.log",
		MaxSize:         100,
		MaxBackups:      5,
		MaxAge:          30,
		Compress:        true,
		FilterContains:  []string{"/health"},
	}

	if v := os.Getenv("LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}
	if v := os.Getenv("LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAge = n
		}
	}

	return cfg
}

// getEnvOr đọc environment variable, trả về fallback nếu trống
func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// FilterHook đánh dấu các entry cần bỏ qua bằng filteredField.
// AsyncHook sẽ kiểm tra field này trước khi ghi.
type FilterHook struct {
	contains []string
}

// NewFilterHook tạo FilterHook từ cấu hình
func NewFilterHook(cfg *LogConfig) *FilterHook {
	return &FilterHook{contains: cfg.FilterContains}
}

// Levels trả về các log levels mà hook này xử lý
func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đánh dấu entry bị filter nếu message chứa pattern cần loại
func (h *FilterHook) Fire(entry *logrus.Entry) error {
	for _, pattern := range h.contains {
		if pattern != "" && strings.Contains(entry.Message, pattern) {
			entry.Data[filteredField] = true
			return nil
		}
	}
	return nil
}

// WithRequest trả về entry đã gắn sẵn thông tin request (method, path, ip, request id)
func WithRequest(c fiber.Ctx) *logrus.Entry {
	return GetAppLogger().WithFields(logrus.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
	})
}
