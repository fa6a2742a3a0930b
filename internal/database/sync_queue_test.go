package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

func TestSyncQueueLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:      "event_insert",
		AppointmentID: "appt-1",
		Payload:       `{"appointment_id":"appt-1"}`,
		Status:        "pending",
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.NotZero(t, task.ID)
	assert.False(t, task.CreatedAt.IsZero())

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "event_insert", pending[0].TaskType)

	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil))

	pending, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncQueueRetryScheduling(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "event_insert", AppointmentID: "appt-2", Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	// Перенос в будущее убирает задачу из выборки
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "calendar: timeout", &future))

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Просроченный next_retry_at снова делает её доступной
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "calendar: timeout", &past))

	pending, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "calendar: timeout", *pending[0].LastError)
}

func TestSyncQueueFailedTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "event_delete", AppointmentID: "appt-3", Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "failed", "retries exhausted", nil))

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "event_delete", failed[0].TaskType)
	require.NotNil(t, failed[0].ProcessedAt)

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncQueueLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.CreateSyncTask(ctx, &models.SyncTask{
			TaskType: "event_insert", AppointmentID: "appt", Status: "pending",
		}))
	}

	pending, err := db.GetPendingSyncTasks(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}
