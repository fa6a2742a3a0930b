package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

func (db *DB) ListVacationPeriods(ctx context.Context) ([]*models.VacationPeriod, error) {
	query := `SELECT id, start_date, end_date, description, created_at
              FROM vacation_periods ORDER BY start_date ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacation periods: %w", err)
	}
	defer rows.Close()

	var periods []*models.VacationPeriod
	for rows.Next() {
		p := &models.VacationPeriod{}
		var startStr, endStr string
		if err := rows.Scan(&p.ID, &startStr, &endStr, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vacation period: %w", err)
		}
		if p.StartDate, err = db.parseTime(startStr); err != nil {
			return nil, fmt.Errorf("failed to parse vacation start %s: %w", startStr, err)
		}
		if p.EndDate, err = db.parseTime(endStr); err != nil {
			return nil, fmt.Errorf("failed to parse vacation end %s: %w", endStr, err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// GetVacationForDate возвращает период отпуска, в который попадает день,
// или nil, если день свободен. Границы включительно.
func (db *DB) GetVacationForDate(ctx context.Context, date time.Time) (*models.VacationPeriod, error) {
	periods, err := db.ListVacationPeriods(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return nil, nil
}

func (db *DB) CreateVacationPeriod(ctx context.Context, p *models.VacationPeriod) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO vacation_periods (id, start_date, end_date, description) VALUES (?, ?, ?, ?)`,
		p.ID,
		p.StartDate.In(db.loc).Format(dateLayout),
		p.EndDate.In(db.loc).Format(dateLayout),
		p.Description)
	if err != nil {
		return fmt.Errorf("failed to create vacation period: %w", err)
	}
	return nil
}

func (db *DB) UpdateVacationPeriod(ctx context.Context, p *models.VacationPeriod) error {
	result, err := db.ExecContext(ctx,
		`UPDATE vacation_periods SET start_date = ?, end_date = ?, description = ? WHERE id = ?`,
		p.StartDate.In(db.loc).Format(dateLayout),
		p.EndDate.In(db.loc).Format(dateLayout),
		p.Description, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update vacation period: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteVacationPeriod(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM vacation_periods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vacation period: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
