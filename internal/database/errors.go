package database

import "errors"

var (
	// ErrSlotTaken слот уже занят другой активной записью
	ErrSlotTaken = errors.New("slot already taken")

	// ErrPastDate дата записи в прошлом
	ErrPastDate = errors.New("date is in the past")

	// ErrVacationBlocked дата попадает в период отпуска
	ErrVacationBlocked = errors.New("date is blocked by vacation period")

	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification запись изменена параллельно (version mismatch)
	ErrConcurrentModification = errors.New("concurrent modification detected")
)
