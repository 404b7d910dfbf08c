package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	common_models "crm-gateway/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type MockLogStore struct {
	mu   sync.Mutex
	logs []common_models.Log
}

func (m *MockLogStore) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, document.(common_models.Log))
	return &mongo.InsertOneResult{}, nil
}

func (m *MockLogStore) snapshot() []common_models.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]common_models.Log(nil), m.logs...)
}

func TestDBCorePersistsWarningsOnly(t *testing.T) {
	store := &MockLogStore{}
	writer := NewDBLogWriter(store, "test-app")

	core := NewDBCore(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&discard{}),
		zapcore.DebugLevel,
	), writer)

	log := zap.New(core).With(zap.String("account_id", "acc-1"))
	log.Info("ignored")
	log.Warn("persisted")
	writer.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(store.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	logs := store.snapshot()
	if len(logs) != 1 {
		t.Fatalf("expected 1 persisted log, got %d", len(logs))
	}
	if logs[0].Message != "persisted" {
		t.Errorf("Message = %q, want persisted", logs[0].Message)
	}
	if logs[0].AccountID != "acc-1" {
		t.Errorf("AccountID = %q, want acc-1", logs[0].AccountID)
	}
	if logs[0].AppID != "test-app" {
		t.Errorf("AppID = %q, want test-app", logs[0].AppID)
	}
	if logs[0].LogLevelId != 30 {
		t.Errorf("LogLevelId = %d, want 30", logs[0].LogLevelId)
	}
}

type discard struct{}

func (d *discard) Write(p []byte) (int, error) { return len(p), nil }
