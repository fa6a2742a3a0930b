package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", time.UTC, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAppointment(at time.Time) *models.Appointment {
	return &models.Appointment{
		ID:           uuid.NewString(),
		ClientName:   "Анна",
		ClientPhone:  "+79991234567",
		ServiceLabel: "Чистка лица (3500 ₽)",
		Time:         at,
		Status:       models.StatusPending,
	}
}

func TestCreateAndGetAppointment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	at := time.Date(2026, 9, 15, 14, 0, 0, 0, time.UTC)
	a := newTestAppointment(at)
	require.NoError(t, db.CreateAppointment(ctx, a))

	got, err := db.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ClientName, got.ClientName)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, got.Time.Equal(at), "stored time %v", got.Time)
	assert.Equal(t, int64(1), got.Version)

	_, err = db.GetAppointment(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAppointmentExclusive_SlotTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	at := time.Date(2026, 9, 15, 14, 0, 0, 0, time.UTC)
	require.NoError(t, db.CreateAppointmentExclusive(ctx, newTestAppointment(at)))

	// Та же самая метка времени
	err := db.CreateAppointmentExclusive(ctx, newTestAppointment(at))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Другая минута того же часа занимает тот же слот
	err = db.CreateAppointmentExclusive(ctx, newTestAppointment(at.Add(23*time.Minute)))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Соседний час свободен
	assert.NoError(t, db.CreateAppointmentExclusive(ctx, newTestAppointment(at.Add(time.Hour))))
}

func TestCreateAppointmentExclusive_CancelledFreesSlot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	at := time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC)
	first := newTestAppointment(at)
	require.NoError(t, db.CreateAppointmentExclusive(ctx, first))
	require.NoError(t, db.UpdateAppointmentStatus(ctx, first.ID, models.StatusCancelled))

	assert.NoError(t, db.CreateAppointmentExclusive(ctx, newTestAppointment(at)))
}

func TestGetActiveAppointmentsByDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	active := newTestAppointment(day.Add(10 * time.Hour))
	cancelled := newTestAppointment(day.Add(12 * time.Hour))
	otherDay := newTestAppointment(day.AddDate(0, 0, 1).Add(10 * time.Hour))

	require.NoError(t, db.CreateAppointment(ctx, active))
	require.NoError(t, db.CreateAppointment(ctx, cancelled))
	require.NoError(t, db.CreateAppointment(ctx, otherDay))
	require.NoError(t, db.UpdateAppointmentStatus(ctx, cancelled.ID, models.StatusCancelled))

	got, err := db.GetActiveAppointmentsByDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestUpdateAppointmentStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestAppointment(time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateAppointment(ctx, a))

	stored, err := db.GetAppointment(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, db.UpdateAppointmentStatusWithVersion(ctx, a.ID, stored.Version, models.StatusConfirmed))

	// Повтор со старой версией отклоняется
	err = db.UpdateAppointmentStatusWithVersion(ctx, a.ID, stored.Version, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	updated, err := db.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, stored.Version+1, updated.Version)
}

func TestSetGoogleEventIDAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := newTestAppointment(time.Date(2026, 9, 15, 16, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateAppointment(ctx, a))

	require.NoError(t, db.SetGoogleEventID(ctx, a.ID, "evt_123"))
	got, err := db.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", got.GoogleEventID)

	require.NoError(t, db.DeleteAppointment(ctx, a.ID))
	_, err = db.GetAppointment(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteAppointment(ctx, a.ID), ErrNotFound)
}

func TestGetUnremindedAppointments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)
	pending := newTestAppointment(day.Add(10 * time.Hour))
	cancelled := newTestAppointment(day.Add(11 * time.Hour))
	require.NoError(t, db.CreateAppointment(ctx, pending))
	require.NoError(t, db.CreateAppointment(ctx, cancelled))
	require.NoError(t, db.UpdateAppointmentStatus(ctx, cancelled.ID, models.StatusCancelled))

	start := day
	end := day.Add(24*time.Hour - time.Second)

	got, err := db.GetUnremindedAppointments(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)

	require.NoError(t, db.MarkReminded(ctx, pending.ID))

	got, err = db.GetUnremindedAppointments(ctx, start, end)
	require.NoError(t, err)
	assert.Empty(t, got)
}
