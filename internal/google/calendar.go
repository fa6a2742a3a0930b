package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/schedule"
)

// CalendarService работает с календарем занятости врача через
// сервисный аккаунт Google.
type CalendarService struct {
	service    *calendar.Service
	calendarID string
	loc        *time.Location
}

func NewCalendarService(credentialsFile, calendarID string, loc *time.Location) (*CalendarService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	config, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	return &CalendarService{
		service:    srv,
		calendarID: calendarID,
		loc:        loc,
	}, nil
}

// TestConnection проверяет доступ сервисного аккаунта к календарю.
func (s *CalendarService) TestConnection(ctx context.Context) error {
	_, err := s.service.Calendars.Get(s.calendarID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("cannot access calendar %s: %w", s.calendarID, err)
	}
	return nil
}

// GetBusyIntervals возвращает занятые интервалы календаря в окне [start, end].
func (s *CalendarService) GetBusyIntervals(ctx context.Context, start, end time.Time) ([]schedule.Interval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: s.loc.String(),
		Items:    []*calendar.FreeBusyRequestItem{{Id: s.calendarID}},
	}

	resp, err := s.service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query failed: %w", err)
	}

	cal, ok := resp.Calendars[s.calendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %s missing from freebusy response", s.calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy error for calendar %s: %s", s.calendarID, cal.Errors[0].Reason)
	}

	intervals := make([]schedule.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		bs, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("bad busy period start %q: %w", period.Start, err)
		}
		be, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("bad busy period end %q: %w", period.End, err)
		}
		intervals = append(intervals, schedule.Interval{Start: bs.In(s.loc), End: be.In(s.loc)})
	}

	return intervals, nil
}

// CreateEvent создает событие записи в календаре и возвращает его ID.
func (s *CalendarService) CreateEvent(ctx context.Context, a *models.Appointment) (string, error) {
	start := a.Time.In(s.loc)
	event := &calendar.Event{
		Summary:     fmt.Sprintf("%s — %s", a.ServiceLabel, a.ClientName),
		Description: fmt.Sprintf("Клиент: %s\nТелефон: %s\nУслуга: %s", a.ClientName, a.ClientPhone, a.ServiceLabel),
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: s.loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: start.Add(time.Hour).Format(time.RFC3339),
			TimeZone: s.loc.String(),
		},
	}

	created, err := s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("event insert failed: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent удаляет событие записи. Отсутствующее событие не ошибка:
// его могли убрать из календаря вручную.
func (s *CalendarService) DeleteEvent(ctx context.Context, eventID string) error {
	err := s.service.Events.Delete(s.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == 404 || apiErr.Code == 410) {
			return nil
		}
		return fmt.Errorf("event delete failed: %w", err)
	}
	return nil
}

// GetServiceAccountEmail читает email сервисного аккаунта из файла
// учетных данных. Полезно для подсказки, кому выдать доступ к календарю.
func GetServiceAccountEmail(credentialsFile string) (string, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}
