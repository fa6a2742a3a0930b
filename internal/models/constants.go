package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// ConsultationLabel — тип заявки без конкретной услуги
	ConsultationLabel = "Консультация по телефону"

	// DefaultServiceLabel — подпись заявки на услугу без расшифровки
	DefaultServiceLabel = "Запись на услугу"
)

const (
	// ReminderHour час, в который отправляются напоминания
	ReminderHour = 9

	// AvailabilityCacheTTL время жизни кэша занятых слотов (секунды)
	AvailabilityCacheTTL = 60

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// RateLimitSubmissions количество заявок с одного телефона в окне
	RateLimitSubmissions = 5

	// RateLimitWindow окно ограничения частоты заявок (секунды)
	RateLimitWindow = 600

	// DefaultExportRangeMonthsBefore диапазон экспорта по умолчанию
	DefaultExportRangeMonthsBefore = 1
	DefaultExportRangeMonthsAfter  = 2
)
