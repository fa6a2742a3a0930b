package schedule

import (
	"fmt"
	"time"
)

// Slots — канонический список слотов рабочего дня клиники.
// Порядок фиксирован; слот занимает час от своей метки.
var Slots = []string{
	"10:00", "11:00", "12:00", "13:00", "14:00",
	"15:00", "16:00", "17:00", "18:00",
}

// IsWorkingSlot проверяет, что метка принадлежит каноническому списку.
func IsWorkingSlot(slot string) bool {
	for _, s := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Interval — полуоткрытый интервал занятости [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps проверяет пересечение с другим полуоткрытым интервалом:
// [a,b) пересекается с [c,d) тогда и только тогда, когда a < d && c < b.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// DayWindow возвращает окно запроса занятости: от полуночи дня
// до 23:59:59 в часовом поясе клиники.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Second)
	return start, end
}

// SlotInterval возвращает часовой интервал слота на заданную дату.
func SlotInterval(date time.Time, slot string, loc *time.Location) (Interval, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(slot, "%d:%d", &hour, &minute); err != nil {
		return Interval{}, fmt.Errorf("invalid slot %q: %w", slot, err)
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
	return Interval{Start: start, End: start.Add(time.Hour)}, nil
}

// BusyFromIntervals отмечает занятыми слоты, чей часовой интервал
// пересекает хотя бы один занятый интервал календаря.
func BusyFromIntervals(date time.Time, busy []Interval, loc *time.Location) []string {
	if len(busy) == 0 {
		return nil
	}

	var result []string
	for _, slot := range Slots {
		si, err := SlotInterval(date, slot, loc)
		if err != nil {
			continue
		}
		for _, b := range busy {
			if si.Overlaps(b) {
				result = append(result, slot)
				break
			}
		}
	}
	return result
}

// Merge объединяет наборы занятых слотов в каноническом порядке без дублей.
// Слоты вне канонического списка отбрасываются.
func Merge(sets ...[]string) []string {
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, slot := range set {
			seen[slot] = true
		}
	}

	result := make([]string, 0, len(seen))
	for _, slot := range Slots {
		if seen[slot] {
			result = append(result, slot)
		}
	}
	return result
}

// AllSlots возвращает копию канонического списка (день отпуска занят целиком).
func AllSlots() []string {
	out := make([]string, len(Slots))
	copy(out, Slots)
	return out
}
