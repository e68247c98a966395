package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dbHandlerBatchSize = 50

// DBHandler is an slog.Handler that batches ERROR+ logs into the system_logs table.
type DBHandler struct {
	db     *gorm.DB
	mu     *sync.Mutex
	buffer *[]models.SystemLog
	attrs  []slog.Attr
	ticker *time.Ticker
	done   chan struct{}
	once   *sync.Once
}

func NewDBHandler(db *gorm.DB, interval time.Duration) *DBHandler {
	buf := make([]models.SystemLog, 0, dbHandlerBatchSize)
	h := &DBHandler{
		db:     db,
		mu:     &sync.Mutex{},
		buffer: &buf,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
		once:   &sync.Once{},
	}
	go h.flushLoop()
	return h
}

func (h *DBHandler) flushLoop() {
	for {
		select {
		case <-h.ticker.C:
			h.Flush()
		case <-h.done:
			h.Flush()
			return
		}
	}
}

// Flush writes every buffered record.
func (h *DBHandler) Flush() {
	h.mu.Lock()
	if len(*h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	batch := *h.buffer
	fresh := make([]models.SystemLog, 0, dbHandlerBatchSize)
	*h.buffer = fresh
	h.mu.Unlock()

	if err := h.db.CreateInBatches(batch, dbHandlerBatchSize).Error; err != nil {
		// Warn level keeps this record out of the handler that just failed.
		slog.Warn("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

func (h *DBHandler) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}

// Enabled only handles ERROR and above.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			switch v := a.Value.Any().(type) {
			case float64:
				entry.LatencyMs = int(math.Round(v))
			case int64:
				entry.LatencyMs = int(v)
			}
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.mu.Lock()
	*h.buffer = append(*h.buffer, entry)
	needFlush := len(*h.buffer) >= dbHandlerBatchSize
	h.mu.Unlock()

	if needFlush {
		go h.Flush()
	}
	return nil
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *DBHandler) WithGroup(name string) slog.Handler {
	return h
}
