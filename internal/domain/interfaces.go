package domain

import (
	"context"
	"io"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/schedule"
)

// Repository — хранилище клиники. Реализуется пакетом database;
// интерфейс изолирует сервисы от конкретного бэкенда.
type Repository interface {
	Location() *time.Location

	// Записи на прием
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	CreateAppointmentExclusive(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	GetActiveAppointmentsByDate(ctx context.Context, date time.Time) ([]*models.Appointment, error)
	GetAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Appointment, error)
	GetUnremindedAppointments(ctx context.Context, start, end time.Time) ([]*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
	UpdateAppointmentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	SetGoogleEventID(ctx context.Context, id, eventID string) error
	MarkReminded(ctx context.Context, id string) error
	DeleteAppointment(ctx context.Context, id string) error

	// Каталог услуг
	ListCategories(ctx context.Context) ([]*models.ServiceCategory, error)
	CreateCategory(ctx context.Context, c *models.ServiceCategory) error
	UpdateCategory(ctx context.Context, c *models.ServiceCategory) error
	DeleteCategory(ctx context.Context, id string) error
	ListServices(ctx context.Context, categoryID string) ([]*models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, s *models.Service) error
	UpdateService(ctx context.Context, s *models.Service) error
	DeleteService(ctx context.Context, id string) error

	// Периоды отпуска
	ListVacationPeriods(ctx context.Context) ([]*models.VacationPeriod, error)
	GetVacationForDate(ctx context.Context, date time.Time) (*models.VacationPeriod, error)
	CreateVacationPeriod(ctx context.Context, p *models.VacationPeriod) error
	UpdateVacationPeriod(ctx context.Context, p *models.VacationPeriod) error
	DeleteVacationPeriod(ctx context.Context, id string) error

	// Контент сайта
	ListGallery(ctx context.Context) ([]*models.GalleryItem, error)
	CreateGalleryItem(ctx context.Context, g *models.GalleryItem) error
	UpdateGalleryItem(ctx context.Context, g *models.GalleryItem) error
	DeleteGalleryItem(ctx context.Context, id string) error
	ListTeamMembers(ctx context.Context) ([]*models.TeamMember, error)
	CreateTeamMember(ctx context.Context, m *models.TeamMember) error
	UpdateTeamMember(ctx context.Context, m *models.TeamMember) error
	DeleteTeamMember(ctx context.Context, id string) error
	ListFAQ(ctx context.Context) ([]*models.FAQItem, error)
	CreateFAQItem(ctx context.Context, f *models.FAQItem) error
	UpdateFAQItem(ctx context.Context, f *models.FAQItem) error
	DeleteFAQItem(ctx context.Context, id string) error
	GetFooterLinks(ctx context.Context) (*models.FooterLinks, error)
	UpsertFooterLinks(ctx context.Context, f *models.FooterLinks) error
	GetContacts(ctx context.Context) (*models.Contacts, error)
	UpsertContacts(ctx context.Context, c *models.Contacts) error
	GetMainContent(ctx context.Context) (*models.MainContent, error)
	UpsertMainContent(ctx context.Context, m *models.MainContent) error
	ListEducation(ctx context.Context) ([]*models.Education, error)
	CreateEducation(ctx context.Context, e *models.Education) error
	UpdateEducation(ctx context.Context, e *models.Education) error
	DeleteEducation(ctx context.Context, id string) error
	ListEducationPhotos(ctx context.Context, educationID string) ([]*models.EducationPhoto, error)
	CreateEducationPhoto(ctx context.Context, p *models.EducationPhoto) error
	DeleteEducationPhoto(ctx context.Context, id string) error
	GetPrivacyPolicy(ctx context.Context) (*models.PrivacyPolicy, error)
	UpsertPrivacyPolicy(ctx context.Context, p *models.PrivacyPolicy) error

	// Очередь синхронизации с календарем
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error)
}

// CalendarAPI — внешний календарь занятости (Google Calendar).
type CalendarAPI interface {
	GetBusyIntervals(ctx context.Context, start, end time.Time) ([]schedule.Interval, error)
	CreateEvent(ctx context.Context, a *models.Appointment) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Notifier доставляет оператору уведомление о новой заявке.
// Доставка обязательна: ошибка отменяет бронирование.
type Notifier interface {
	NotifyNewBooking(a *models.Appointment) error
	SendText(chatID int64, text string) error
}

// AvailabilityCache кэширует занятые слоты по дате и считает лимиты заявок.
type AvailabilityCache interface {
	GetBusySlots(ctx context.Context, dateKey string) ([]string, bool, error)
	SetBusySlots(ctx context.Context, dateKey string, slots []string, ttl time.Duration) error
	InvalidateDate(ctx context.Context, dateKey string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SyncWorker принимает отложенные задачи синхронизации с календарем.
type SyncWorker interface {
	EnqueueCreateEvent(ctx context.Context, a *models.Appointment) error
	EnqueueDeleteEvent(ctx context.Context, appointmentID, eventID string) error
}

// EventPublisher — внутрипроцессная шина доменных событий.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BlobStorage сохраняет загруженные файлы и возвращает публичный URL.
type BlobStorage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// TelegramSender — минимальный срез клиента Telegram для сервисов и бота.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
