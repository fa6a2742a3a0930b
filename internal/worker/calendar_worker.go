package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/metrics"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

const (
	TaskEventInsert = "event_insert"
	TaskEventDelete = "event_delete"
)

// calendarTaskPayload is persisted in SyncTask.Payload as JSON.
type calendarTaskPayload struct {
	Appointment *models.Appointment `json:"appointment,omitempty"`
	EventID     string              `json:"event_id,omitempty"`
}

// CalendarClient applies queued tasks to the external calendar.
type CalendarClient interface {
	CreateEvent(ctx context.Context, a *models.Appointment) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// CalendarWorker consumes sync_queue tasks and mirrors appointments
// into Google Calendar. Event creation is best-effort with retries:
// the appointment row is already committed when a task is enqueued.
type CalendarWorker struct {
	db            *database.DB
	calendar      CalendarClient
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewCalendarWorker builds a worker with sane defaults.
func NewCalendarWorker(db *database.DB, cal CalendarClient, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *CalendarWorker {
	retry = retry.withDefaults()

	return &CalendarWorker{
		db:            db,
		calendar:      cal,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "calendar:queue",
		deadLetterKey: "calendar:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueCreateEvent persists an event-insert task for the appointment.
func (w *CalendarWorker) EnqueueCreateEvent(ctx context.Context, a *models.Appointment) error {
	if a == nil || a.ID == "" {
		return errors.New("appointment id is required")
	}
	return w.enqueue(ctx, TaskEventInsert, a.ID, calendarTaskPayload{Appointment: a})
}

// EnqueueDeleteEvent persists an event-delete task for a canceled appointment.
func (w *CalendarWorker) EnqueueDeleteEvent(ctx context.Context, appointmentID, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return w.enqueue(ctx, TaskEventDelete, appointmentID, calendarTaskPayload{EventID: eventID})
}

func (w *CalendarWorker) enqueue(ctx context.Context, taskType, appointmentID string, payload calendarTaskPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType:      taskType,
		AppointmentID: appointmentID,
		Payload:       string(payloadBytes),
		Status:        "pending",
		CreatedAt:     time.Now(),
	}

	if err := w.db.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("calendar_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("calendar_worker: in-memory queue full, task dropped to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *CalendarWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("calendar_worker: started")
	defer w.logger.Info().Msg("calendar_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("calendar_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *CalendarWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *CalendarWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("calendar_worker: redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("calendar_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *CalendarWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload calendarTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		metrics.IncCalendarError()
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark completed")
	}
}

func (w *CalendarWorker) handleTask(ctx context.Context, taskType string, payload calendarTaskPayload) error {
	switch taskType {
	case TaskEventInsert:
		if payload.Appointment == nil {
			return errors.New("appointment payload missing")
		}
		// Запись могли отменить, пока задача ждала в очереди
		current, err := w.db.GetAppointment(ctx, payload.Appointment.ID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("load appointment: %w", err)
		}
		if current.Status == models.StatusCancelled {
			return nil
		}
		if current.GoogleEventID != "" {
			return nil
		}

		eventID, err := w.calendar.CreateEvent(ctx, current)
		if err != nil {
			return err
		}
		if err := w.db.SetGoogleEventID(ctx, current.ID, eventID); err != nil {
			return fmt.Errorf("store event id: %w", err)
		}
		return nil
	case TaskEventDelete:
		if payload.EventID == "" {
			return errors.New("event id missing")
		}
		return w.calendar.DeleteEvent(ctx, payload.EventID)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *CalendarWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark retry")
	}
}

func (w *CalendarWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *CalendarWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *CalendarWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("calendar_worker: deadletter push")
	}
}
