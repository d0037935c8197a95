package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// defaultQueueSize là số entry tối đa chờ trong queue của async hook
const defaultQueueSize = 1000

// filteredField là field đánh dấu entry bị FilterHook loại (xem config.go)
const filteredField = "_filtered"

// AsyncHook đẩy log entry qua một channel có buffer và ghi xuống writers
// trong goroutine riêng. Fire không bao giờ block: queue đầy thì entry bị
// bỏ - mất một dòng log rẻ hơn là treo request handler theo file I/O.
type AsyncHook struct {
	writers []io.Writer
	queue   chan *logrus.Entry

	mu     sync.Mutex
	closed bool
	done   sync.WaitGroup
}

// NewAsyncHookWithWriters tạo async hook ghi xuống nhiều writer
// (file xoay vòng, stdout). queueSize <= 0 thì dùng defaultQueueSize.
func NewAsyncHookWithWriters(writers []io.Writer, queueSize int) *AsyncHook {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	h := &AsyncHook{
		writers: writers,
		queue:   make(chan *logrus.Entry, queueSize),
	}
	h.done.Add(1)
	go h.drain()
	return h
}

// Levels nhận mọi level; việc lọc đã có FilterHook lo trước đó
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đưa entry vào queue, không bao giờ block. Sau khi Close, entry được
// ghi thẳng đồng bộ để không mất những dòng log cuối lúc shutdown.
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return h.write(entry)
	}

	select {
	case h.queue <- entry:
	default:
		// Queue đầy. Không log gì thêm ở đây - logger gọi logger là vòng lặp
	}
	return nil
}

// drain ghi lần lượt từng entry trong queue, chạy trong goroutine riêng
func (h *AsyncHook) drain() {
	defer h.done.Done()
	for entry := range h.queue {
		h.writeRecovered(entry)
	}
}

// writeRecovered ghi một entry và nuốt panic: goroutine log không bao giờ
// được phép kéo sập process chủ
func (h *AsyncHook) writeRecovered(entry *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			// Không dùng logger ở đây - sẽ thành vòng lặp, ghi thẳng stderr
			fmt.Fprintf(os.Stderr, "[LOGGER PANIC] %v\n", r)
			debug.PrintStack()
		}
	}()
	_ = h.write(entry)
}

// write format một entry và ghi vào mọi writer. Entry đã bị FilterHook
// đánh dấu thì bỏ qua; field đánh dấu được gỡ trước khi format.
func (h *AsyncHook) write(entry *logrus.Entry) error {
	if filtered, ok := entry.Data[filteredField].(bool); ok && filtered {
		return nil
	}
	if _, ok := entry.Data[filteredField]; ok {
		entry = entry.Dup()
		delete(entry.Data, filteredField)
	}

	var data []byte
	var err error
	if entry.Logger != nil && entry.Logger.Formatter != nil {
		data, err = entry.Logger.Formatter.Format(entry)
	} else {
		var line string
		line, err = entry.String()
		data = []byte(line)
	}
	if err != nil {
		return err
	}

	for _, w := range h.writers {
		// Writer lỗi không chặn các writer còn lại
		_, _ = w.Write(data)
	}
	return nil
}

// Close chặn entry mới vào queue và đợi ghi nốt phần còn tồn đọng
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.queue)
	h.done.Wait()
	return nil
}
