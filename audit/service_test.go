package audit

import (
	"context"
	"testing"

	"github.com/sojrpg/server/model"
	"github.com/sojrpg/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_StartsWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())
	require.NotNil(t, svc)
	svc.Stop(context.Background())
}

func TestLog_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	accountID := int64(2)
	questID := int64(7)
	svc.Log(Entry{
		TraceID:    "trace-123",
		AccountID:  &accountID,
		QuestID:    &questID,
		Action:     "quest.move",
		Request:    map[string]string{"location_slug": "havenfall"},
		IP:         "127.0.0.1",
		DurationMs: 42,
	})

	// Stop flushes remaining entries.
	svc.Stop(context.Background())

	var logs []model.AuditLog
	db.Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, "quest.move", logs[0].Action)
	assert.Equal(t, "127.0.0.1", logs[0].IP)
	assert.Equal(t, 42, logs[0].DurationMs)
	require.NotNil(t, logs[0].QuestID)
	assert.Equal(t, questID, *logs[0].QuestID)
	assert.Contains(t, string(logs[0].Request), "havenfall")
}

func TestLog_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	// 100 entries trigger an immediate batch flush inside the worker.
	for i := 0; i < 100; i++ {
		svc.Log(Entry{Action: "batch"})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(100), count)
}

func TestLog_NilIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	svc.Log(Entry{Action: "anonymous"})
	svc.Stop(context.Background())

	var logs []model.AuditLog
	db.Find(&logs)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].AccountID)
	assert.Nil(t, logs[0].QuestID)
}

func TestStop_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())
	svc.Stop(context.Background())
	svc.Stop(context.Background())
}

func TestLog_DropsWhenFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	// Flooding past the channel capacity must drop, not block or panic.
	for i := 0; i < 1500; i++ {
		svc.Log(Entry{Action: "flood"})
	}
	svc.Stop(context.Background())
}
