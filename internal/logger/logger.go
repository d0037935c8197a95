// Package logger dựng hệ thống log nhiều kênh trên logrus: mỗi kênh ghi ra
// một file xoay vòng riêng qua lumberjack, cộng thêm stdout khi chạy dev.
// Ghi file đi qua async hook để file I/O chậm không kéo theo request handling.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Tên các kênh log cố định của hệ thống
const (
	ChannelApp         = "app"         // Dòng chảy chính: request, sổ tư vấn, chatbot
	ChannelAudit       = "audit"       // Ai làm gì trên sổ tư vấn (xem audit.go)
	ChannelPerformance = "performance" // Thời gian các call đắt: full scan Sheets
	ChannelError       = "error"       // Kênh riêng cho lỗi cần người xử lý (nguy cơ mất dữ liệu)
)

var (
	instances   = make(map[string]*logrus.Logger)
	instancesMu sync.Mutex

	current *LogConfig // Cấu hình đang dùng, chốt bởi Init
	baseDir string     // Thư mục gốc project, nơi treo thư mục logs
)

// Init chuẩn bị hệ thống log: chốt cấu hình, tìm thư mục gốc project và tạo
// sẵn thư mục logs. cfg nil thì dùng DefaultConfig (đọc override từ env).
func Init(cfg *LogConfig) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	current = cfg

	if err := resolveBaseDir(); err != nil {
		return fmt.Errorf("không xác định được thư mục gốc project: %w", err)
	}
	if err := os.MkdirAll(logDir(), 0755); err != nil {
		return fmt.Errorf("không tạo được thư mục logs: %w", err)
	}
	return nil
}

// resolveBaseDir tìm thư mục gốc project theo thứ tự: env LOG_ROOT_DIR,
// vị trí binary, cuối cùng đi ngược từ working directory cho tới khi gặp
// mốc nhận diện (thư mục config hoặc logs).
func resolveBaseDir() error {
	if baseDir != "" {
		return nil
	}

	if dir := os.Getenv("LOG_ROOT_DIR"); dir != "" {
		// Resolve symlink cho trường hợp deploy qua link current -> release
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
		baseDir = dir
		return nil
	}

	// Binary nằm ở <root>/cmd/server/<bin> theo layout chuẩn của repo
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		candidate := filepath.Dir(filepath.Dir(filepath.Dir(exe)))
		if looksLikeProjectRoot(candidate) {
			baseDir = candidate
			return nil
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	dir := wd
	for i := 0; i < 5; i++ {
		if looksLikeProjectRoot(dir) {
			baseDir = dir
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// go test chạy từ thư mục package, không có mốc nào thì dùng luôn wd
	baseDir = wd
	return nil
}

// looksLikeProjectRoot nhận diện thư mục gốc qua các mốc luôn có mặt
func looksLikeProjectRoot(dir string) bool {
	for _, marker := range []string{"config", "logs"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// logDir trả về đường dẫn tuyệt đối của thư mục logs
func logDir() string {
	if filepath.IsAbs(current.LogPath) {
		return current.LogPath
	}
	return filepath.Join(baseDir, current.LogPath)
}

// GetLogger trả về logger của một kênh, khởi tạo lười và cache theo tên.
// Gọi trước Init thì tự Init với cấu hình mặc định.
func GetLogger(channel string) *logrus.Logger {
	instancesMu.Lock()
	defer instancesMu.Unlock()

	if current == nil {
		if err := Init(nil); err != nil {
			panic(fmt.Sprintf("khởi tạo hệ thống log thất bại: %v", err))
		}
	}

	if lg, ok := instances[channel]; ok {
		return lg
	}
	lg := newChannelLogger(channel)
	instances[channel] = lg
	return lg
}

// newChannelLogger dựng logger cho một kênh: formatter theo cấu hình,
// filter hook loại noise, async hook ôm toàn bộ writers.
func newChannelLogger(channel string) *logrus.Logger {
	lg := logrus.New()

	level, err := logrus.ParseLevel(current.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	lg.SetLevel(level)
	lg.SetFormatter(newFormatter())
	lg.SetReportCaller(true)

	// FilterHook phải đứng trước async hook: entry bị loại thì khỏi vào queue
	lg.AddHook(NewFilterHook(current))

	// Mọi writer đi qua async hook; output gốc của logger bị discard để
	// một entry không bị ghi hai lần
	if writers := channelWriters(channel); len(writers) > 0 {
		lg.AddHook(NewAsyncHookWithWriters(writers, defaultQueueSize))
		lg.SetOutput(io.Discard)
	}

	return lg
}

// newFormatter dựng formatter theo cấu hình Format (json cho production,
// text cho dev đọc bằng mắt)
func newFormatter() logrus.Formatter {
	const timeLayout = "2006-01-02 15:04:05.000"

	if current.Format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: timeLayout,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		}
	}

	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timeLayout,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			parts := strings.Split(f.Function, ".")
			return parts[len(parts)-1], fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		},
	}
}

// channelWriters trả về danh sách writer của một kênh theo cấu hình Output
func channelWriters(channel string) []io.Writer {
	var writers []io.Writer

	if current.Output == "file" || current.Output == "both" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(logDir(), fileFor(channel)),
			MaxSize:    current.MaxSize,
			MaxBackups: current.MaxBackups,
			MaxAge:     current.MaxAge,
			Compress:   current.Compress,
		})
	}
	if current.Output == "stdout" || current.Output == "both" {
		writers = append(writers, os.Stdout)
	}
	return writers
}

// fileFor map tên kênh sang tên file log trong cấu hình; kênh lạ thì dùng
// luôn tên kênh làm tên file
func fileFor(channel string) string {
	switch channel {
	case ChannelApp:
		return current.AppFile
	case ChannelAudit:
		return current.AuditFile
	case ChannelPerformance:
		return current.PerformanceFile
	case ChannelError:
		return current.ErrorFile
	}
	return channel + ".log"
}

// GetAppLogger trả về logger kênh chính của ứng dụng
func GetAppLogger() *logrus.Logger {
	return GetLogger(ChannelApp)
}

// GetAuditLogger trả về logger kênh audit
func GetAuditLogger() *logrus.Logger {
	return GetLogger(ChannelAudit)
}

// GetPerformanceLogger trả về logger kênh đo thời gian
func GetPerformanceLogger() *logrus.Logger {
	return GetLogger(ChannelPerformance)
}

// GetErrorLogger trả về logger kênh lỗi nghiêm trọng
func GetErrorLogger() *logrus.Logger {
	return GetLogger(ChannelError)
}
