package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/events"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/repository"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/schedule"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/storage"
)

const testAPIKey = "test-admin-key"

type stubCalendar struct {
	intervals []schedule.Interval
	err       error
}

func (s *stubCalendar) GetBusyIntervals(ctx context.Context, start, end time.Time) ([]schedule.Interval, error) {
	return s.intervals, s.err
}

func (s *stubCalendar) CreateEvent(ctx context.Context, a *models.Appointment) (string, error) {
	return "evt-stub", nil
}

func (s *stubCalendar) DeleteEvent(ctx context.Context, eventID string) error { return nil }

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) NotifyNewBooking(a *models.Appointment) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) SendText(chatID int64, text string) error { return nil }

type stubSyncWorker struct{}

func (stubSyncWorker) EnqueueCreateEvent(ctx context.Context, a *models.Appointment) error {
	return nil
}

func (stubSyncWorker) EnqueueDeleteEvent(ctx context.Context, appointmentID, eventID string) error {
	return nil
}

type serverFixture struct {
	srv      *HTTPServer
	repo     *database.DB
	calendar *stubCalendar
	notifier *stubNotifier
}

func newServerFixture(t *testing.T) *serverFixture {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", time.UTC, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &serverFixture{
		repo:     db,
		calendar: &stubCalendar{},
		notifier: &stubNotifier{},
	}

	booking := service.NewBookingService(
		db, f.calendar, f.notifier,
		repository.NewMemoryAvailabilityCache(),
		stubSyncWorker{}, events.NewEventBus(), 90, &logger,
	)

	uploads, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	cfg := config.APIConfig{
		Port: 0,
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://dr-anastasia-grebenuk.ru"}},
		Auth: config.APIAuthConfig{
			APIKeys: []config.APIClientKey{
				{Key: testAPIKey, Name: "admin-panel", Permissions: []string{"admin"}},
				{Key: "readonly-key", Name: "readonly", Permissions: []string{"read"}},
			},
		},
	}

	f.srv = NewHTTPServer(cfg, booking, db, uploads, uploads.Dir(), "/uploads", &logger)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func tomorrowAPIDate() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(service.DateLayout)
}

func TestCheckAvailability(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/check-availability", map[string]string{"date": tomorrowAPIDate()}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{}, body["busySlots"])
	assert.NotContains(t, body, "vacationBlocked")
}

func TestCheckAvailabilityVacation(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	tomorrow = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.repo.CreateVacationPeriod(ctx, &models.VacationPeriod{
		StartDate: tomorrow, EndDate: tomorrow,
	}))

	rec := f.do(t, http.MethodPost, "/api/v1/check-availability", map[string]string{"date": tomorrowAPIDate()}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["vacationBlocked"])
	assert.Len(t, body["busySlots"], len(schedule.AllSlots()))
	assert.NotEmpty(t, body["message"])
}

func TestCheckAvailabilityBadRequest(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/check-availability", map[string]string{"date": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/check-availability", map[string]string{"date": "2026-09-15"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestCheckAvailabilityCalendarDown(t *testing.T) {
	f := newServerFixture(t)
	f.calendar.err = fmt.Errorf("googleapi: 503")

	rec := f.do(t, http.MethodPost, "/api/v1/check-availability", map[string]string{"date": tomorrowAPIDate()}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSendBooking(t *testing.T) {
	f := newServerFixture(t)

	req := map[string]string{
		"name":        "Анна",
		"phone":       "+79991234567",
		"serviceType": "consultation",
		"date":        tomorrowAPIDate(),
		"time":        "14:00",
	}
	rec := f.do(t, http.MethodPost, "/api/v1/send-booking", req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, 1, f.notifier.calls)

	// Повторная заявка на тот же слот
	req["name"] = "Ольга"
	rec = f.do(t, http.MethodPost, "/api/v1/send-booking", req, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestSendBookingStoresFormServiceText(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/api/v1/send-booking", map[string]string{
		"name":        "Анна",
		"phone":       "+79991234567",
		"serviceType": "Лазерная эпиляция (акция)",
		"date":        tomorrowAPIDate(),
		"time":        "14:00",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	tomorrow = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	appointments, err := f.repo.GetActiveAppointmentsByDate(ctx, tomorrow)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "Лазерная эпиляция (акция)", appointments[0].ServiceLabel)
}

func TestSendBookingValidationAndNotifyFailure(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/send-booking", map[string]string{
		"name": "Анна", "date": tomorrowAPIDate(), "time": "14:00",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Отказ телеграма не раскрывается клиенту
	f.notifier.err = fmt.Errorf("telegram: bad gateway")
	rec = f.do(t, http.MethodPost, "/api/v1/send-booking", map[string]string{
		"name": "Анна", "phone": "+79991234567", "date": tomorrowAPIDate(), "time": "15:00",
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, decodeBody(t, rec)["error"], "telegram")
}

func TestCORSPreflight(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/send-booking", nil)
	req.Header.Set("Origin", "https://dr-anastasia-grebenuk.ru")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dr-anastasia-grebenuk.ru", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Api-Key")
}

func TestCORSUnknownOrigin(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/faq", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminAuth(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/admin/appointments", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/admin/appointments", nil, map[string]string{"x-api-key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/admin/appointments", nil, map[string]string{"x-api-key": "readonly-key"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/admin/appointments", nil, map[string]string{"x-api-key": testAPIKey})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func adminHeaders() map[string]string {
	return map[string]string{"x-api-key": testAPIKey}
}

func TestAdminAppointmentLifecycle(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/api/v1/admin/appointments", map[string]string{
		"client_name":      "Анна",
		"client_phone":     "+79991234567",
		"appointment_time": tomorrowAPIDate() + " 14:00",
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.StatusConfirmed, created.Status)
	assert.Equal(t, models.DefaultServiceLabel, created.ServiceLabel)

	// Дубль того же слота
	rec = f.do(t, http.MethodPost, "/api/v1/admin/appointments", map[string]string{
		"client_name":      "Ольга",
		"client_phone":     "+79990000000",
		"appointment_time": tomorrowAPIDate() + " 14:30",
	}, adminHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := f.repo.GetAppointment(ctx, created.ID)
	require.NoError(t, err)

	rec = f.do(t, http.MethodPost, "/api/v1/admin/appointments/"+created.ID+"/status", map[string]any{
		"action": "complete", "version": stored.Version,
	}, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	// Устаревшая версия
	rec = f.do(t, http.MethodPost, "/api/v1/admin/appointments/"+created.ID+"/status", map[string]any{
		"action": "cancel", "version": stored.Version,
	}, adminHeaders())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/admin/appointments/missing/status", map[string]any{
		"action": "cancel", "version": 1,
	}, adminHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/admin/appointments/"+created.ID+"/status", map[string]any{
		"action": "unknown", "version": 1,
	}, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCatalogAndPublicContent(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/admin/categories", map[string]string{"title": "Косметология"}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)
	var cat models.ServiceCategory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))

	rec = f.do(t, http.MethodPost, "/api/v1/admin/services", map[string]any{
		"category_id": cat.ID, "title": "Чистка лица", "price": "3500 ₽",
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	// Публичный каталог отдается без ключа
	rec = f.do(t, http.MethodGet, "/api/v1/services?category_id="+cat.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var services []models.Service
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &services))
	require.Len(t, services, 1)
	assert.Equal(t, "Чистка лица", services[0].Title)

	rec = f.do(t, http.MethodPut, "/api/v1/admin/services/missing", map[string]string{"title": "Нет"}, adminHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminVacationValidation(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/admin/vacations", map[string]string{
		"start_date": "20.07.2026", "end_date": "10.07.2026",
	}, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/admin/vacations", map[string]string{
		"start_date": "10.07.2026", "end_date": "20.07.2026", "description": "Отпуск",
	}, adminHeaders())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestContentEmptyDefaults(t *testing.T) {
	f := newServerFixture(t)

	// Пустая база не должна отдавать 500 на публичных страницах
	for _, path := range []string{"/api/v1/footer-links", "/api/v1/contacts", "/api/v1/main-content", "/api/v1/privacy-policy"} {
		rec := f.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAdminUpload(t *testing.T) {
	f := newServerFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "фото процедуры.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-api-key", testAPIKey)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	url, _ := body["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"), "url %q", url)
}

func TestAdminExport(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/admin/appointments/export", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = f.do(t, http.MethodGet, "/api/v1/admin/appointments/export?from=99.99.9999", nil, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
