package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/events"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/metrics"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/schedule"
)

var (
	// ErrInvalidInput данные заявки не прошли валидацию
	ErrInvalidInput = errors.New("invalid booking input")

	// ErrRateLimited слишком много заявок с одного телефона
	ErrRateLimited = errors.New("too many booking attempts")

	// ErrDateTooFar дата записи дальше разрешенного горизонта
	ErrDateTooFar = errors.New("booking date is too far ahead")

	// ErrCalendarUnavailable календарь занятости недоступен;
	// без него доступность определить нельзя
	ErrCalendarUnavailable = errors.New("calendar is unavailable")

	// ErrNotificationFailed оператор не получил уведомление, заявка отменена
	ErrNotificationFailed = errors.New("operator notification failed")
)

// DateLayout — формат дат в публичном API (DD.MM.YYYY).
const DateLayout = "02.01.2006"

// BookingRequest — заявка клиента с публичной формы записи.
type BookingRequest struct {
	Name        string
	Phone       string
	ServiceID   string
	ServiceType string // свободный текст формы, подпись по умолчанию
	Date        string // DD.MM.YYYY
	Time        string // HH:MM
}

type BookingService struct {
	repo           domain.Repository
	calendar       domain.CalendarAPI
	notifier       domain.Notifier
	cache          domain.AvailabilityCache
	syncWorker     domain.SyncWorker
	eventBus       domain.EventPublisher
	loc            *time.Location
	maxBookingDays int
	rateLimit      int
	rateWindow     time.Duration
	logger         *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	cal domain.CalendarAPI,
	notifier domain.Notifier,
	cache domain.AvailabilityCache,
	syncWorker domain.SyncWorker,
	eventBus domain.EventPublisher,
	maxBookingDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = 90
	}
	return &BookingService{
		repo:           repo,
		calendar:       cal,
		notifier:       notifier,
		cache:          cache,
		syncWorker:     syncWorker,
		eventBus:       eventBus,
		loc:            repo.Location(),
		maxBookingDays: maxBookingDays,
		rateLimit:      models.RateLimitSubmissions,
		rateWindow:     models.RateLimitWindow * time.Second,
		logger:         logger,
	}
}

// ParseDate разбирает дату публичного API в часовом поясе клиники.
func (s *BookingService) ParseDate(raw string) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidInput, raw)
	}
	return date, nil
}

// GetBusySlots возвращает занятые слоты на дату, объединяя календарь
// врача и активные записи в базе. Отпуск закрывает день целиком
// (второе значение true). Недоступность любого из источников — ошибка:
// молчаливый показ свободных слотов ведет к двойным записям.
func (s *BookingService) GetBusySlots(ctx context.Context, date time.Time) ([]string, bool, error) {
	metrics.IncAvailabilityCheck()

	vacation, err := s.repo.GetVacationForDate(ctx, date)
	if err != nil {
		return nil, false, fmt.Errorf("vacation lookup: %w", err)
	}
	if vacation != nil {
		return schedule.AllSlots(), true, nil
	}

	dateKey := date.Format("2006-01-02")
	if cached, ok, err := s.cache.GetBusySlots(ctx, dateKey); err == nil && ok {
		return cached, false, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Str("date", dateKey).Msg("busy slots cache read failed")
	}

	start, end := schedule.DayWindow(date, s.loc)

	busyIntervals, err := s.calendar.GetBusyIntervals(ctx, start, end)
	if err != nil {
		metrics.IncCalendarError()
		return nil, false, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	calendarSlots := schedule.BusyFromIntervals(date, busyIntervals, s.loc)

	appointments, err := s.repo.GetActiveAppointmentsByDate(ctx, date)
	if err != nil {
		return nil, false, fmt.Errorf("appointments lookup: %w", err)
	}
	dbSlots := make([]string, 0, len(appointments))
	for _, a := range appointments {
		dbSlots = append(dbSlots, a.Slot())
	}

	merged := schedule.Merge(calendarSlots, dbSlots)

	ttl := models.AvailabilityCacheTTL * time.Second
	if err := s.cache.SetBusySlots(ctx, dateKey, merged, ttl); err != nil {
		s.logger.Warn().Err(err).Str("date", dateKey).Msg("busy slots cache write failed")
	}

	return merged, false, nil
}

// ValidateBookingDate проверяет, что дата не в прошлом и не за горизонтом записи.
func (s *BookingService) ValidateBookingDate(date time.Time) error {
	now := time.Now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if date.Before(today) {
		return database.ErrPastDate
	}

	maxDate := today.AddDate(0, 0, s.maxBookingDays)
	if date.After(maxDate) {
		return ErrDateTooFar
	}

	return nil
}

// SubmitBooking проводит заявку клиента: валидация, защита от дублей,
// обязательное уведомление оператора и отложенное событие календаря.
// Заявка считается принятой только после доставки уведомления.
func (s *BookingService) SubmitBooking(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" || req.Date == "" || req.Time == "" {
		metrics.IncBookingRejected("validation")
		return nil, fmt.Errorf("%w: name, phone, date and time are required", ErrInvalidInput)
	}

	allowed, err := s.cache.CheckRateLimit(ctx, normalizePhone(phone), s.rateLimit, s.rateWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
	} else if !allowed {
		metrics.IncBookingRejected("rate_limited")
		return nil, ErrRateLimited
	}

	date, err := s.ParseDate(req.Date)
	if err != nil {
		metrics.IncBookingRejected("validation")
		return nil, err
	}

	var hour, minute int
	if _, err := fmt.Sscanf(strings.TrimSpace(req.Time), "%d:%d", &hour, &minute); err != nil {
		metrics.IncBookingRejected("validation")
		return nil, fmt.Errorf("%w: bad time %q", ErrInvalidInput, req.Time)
	}
	// Минуты отбрасываются: запись всегда на начало часа
	slot := fmt.Sprintf("%02d:00", hour)
	if !schedule.IsWorkingSlot(slot) {
		metrics.IncBookingRejected("validation")
		return nil, fmt.Errorf("%w: time %q is outside working hours", ErrInvalidInput, req.Time)
	}
	slotTime := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, s.loc)

	if err := s.ValidateBookingDate(date); err != nil {
		metrics.IncBookingRejected("past_date")
		return nil, err
	}

	vacation, err := s.repo.GetVacationForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("vacation lookup: %w", err)
	}
	if vacation != nil {
		metrics.IncBookingRejected("vacation")
		return nil, database.ErrVacationBlocked
	}

	busy, _, err := s.GetBusySlots(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, b := range busy {
		if b == slot {
			metrics.IncBookingRejected("slot_taken")
			return nil, database.ErrSlotTaken
		}
	}

	label, serviceID := s.resolveServiceLabel(ctx, req.ServiceID, req.ServiceType)

	appointment := &models.Appointment{
		ID:           uuid.NewString(),
		ClientName:   name,
		ClientPhone:  phone,
		ServiceID:    serviceID,
		ServiceLabel: label,
		Time:         slotTime,
		Status:       models.StatusPending,
	}

	if err := s.repo.CreateAppointmentExclusive(ctx, appointment); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncBookingRejected("slot_taken")
		}
		return nil, err
	}

	// Уведомление обязательно: без него оператор не узнает о заявке,
	// поэтому при ошибке запись откатывается
	if err := s.notifier.NotifyNewBooking(appointment); err != nil {
		metrics.IncNotifyError()
		if delErr := s.repo.DeleteAppointment(ctx, appointment.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("appointment_id", appointment.ID).
				Msg("rollback after failed notification also failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	if err := s.cache.InvalidateDate(ctx, date.Format("2006-01-02")); err != nil {
		s.logger.Warn().Err(err).Msg("busy slots cache invalidation failed")
	}

	s.publishEvent(events.EventAppointmentCreated, appointment, "client")

	// Событие календаря создается асинхронно с повторами: его отказ
	// не должен терять уже принятую заявку
	if err := s.syncWorker.EnqueueCreateEvent(ctx, appointment); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appointment.ID).
			Msg("failed to enqueue calendar event creation")
	}

	metrics.IncBookingCreated()
	return appointment, nil
}

// resolveServiceLabel подбирает подпись заявки: название услуги из
// каталога, иначе свободный текст формы, иначе общая подпись.
func (s *BookingService) resolveServiceLabel(ctx context.Context, serviceID, serviceType string) (string, string) {
	fallback := strings.TrimSpace(serviceType)
	if strings.EqualFold(fallback, "consultation") {
		fallback = models.ConsultationLabel
	}

	if serviceID == "" {
		if fallback == "" {
			fallback = models.ConsultationLabel
		}
		return fallback, ""
	}

	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.Warn().Err(err).Str("service_id", serviceID).Msg("service lookup failed")
		}
		if fallback == "" {
			fallback = models.DefaultServiceLabel
		}
		return fallback, serviceID
	}
	return svc.DisplayLabel(), svc.ID
}

// RegisterAppointment проводит запись, заведенную оператором вручную.
// Слот защищается так же, как для публичной заявки; кэш занятости
// сбрасывается и событие календаря ставится в очередь.
func (s *BookingService) RegisterAppointment(ctx context.Context, a *models.Appointment) error {
	if err := s.repo.CreateAppointmentExclusive(ctx, a); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			metrics.IncBookingRejected("slot_taken")
		}
		return err
	}

	if err := s.cache.InvalidateDate(ctx, a.Time.In(s.loc).Format("2006-01-02")); err != nil {
		s.logger.Warn().Err(err).Msg("busy slots cache invalidation failed")
	}

	s.publishEvent(events.EventAppointmentCreated, a, "admin")

	if err := s.syncWorker.EnqueueCreateEvent(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", a.ID).
			Msg("failed to enqueue calendar event creation")
	}

	metrics.IncBookingCreated()
	return nil
}

// ConfirmAppointment переводит заявку в подтвержденные.
func (s *BookingService) ConfirmAppointment(ctx context.Context, id string, version int64, changedBy string) error {
	if err := s.repo.UpdateAppointmentStatusWithVersion(ctx, id, version, models.StatusConfirmed); err != nil {
		return err
	}

	if a, err := s.repo.GetAppointment(ctx, id); err == nil {
		s.publishEvent(events.EventAppointmentConfirmed, a, changedBy)
	}
	return nil
}

// CancelAppointment отменяет заявку, освобождает слот и убирает событие календаря.
func (s *BookingService) CancelAppointment(ctx context.Context, id string, version int64, changedBy string) error {
	appointment, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateAppointmentStatusWithVersion(ctx, id, version, models.StatusCancelled); err != nil {
		return err
	}

	dateKey := appointment.Time.In(s.loc).Format("2006-01-02")
	if err := s.cache.InvalidateDate(ctx, dateKey); err != nil {
		s.logger.Warn().Err(err).Msg("busy slots cache invalidation failed")
	}

	if appointment.GoogleEventID != "" {
		if err := s.syncWorker.EnqueueDeleteEvent(ctx, id, appointment.GoogleEventID); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", id).
				Msg("failed to enqueue calendar event deletion")
		}
	}

	appointment.Status = models.StatusCancelled
	s.publishEvent(events.EventAppointmentCanceled, appointment, changedBy)
	return nil
}

// CompleteAppointment отмечает визит состоявшимся.
func (s *BookingService) CompleteAppointment(ctx context.Context, id string, version int64, changedBy string) error {
	if err := s.repo.UpdateAppointmentStatusWithVersion(ctx, id, version, models.StatusCompleted); err != nil {
		return err
	}

	if a, err := s.repo.GetAppointment(ctx, id); err == nil {
		s.publishEvent(events.EventAppointmentCompleted, a, changedBy)
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, a *models.Appointment, changedBy string) {
	payload := events.AppointmentEventPayload{
		AppointmentID: a.ID,
		ClientName:    a.ClientName,
		ClientPhone:   a.ClientPhone,
		ServiceID:     a.ServiceID,
		ServiceLabel:  a.ServiceLabel,
		Status:        a.Status,
		Time:          a.Time,
		ChangedBy:     changedBy,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
