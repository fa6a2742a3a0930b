package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

// Категории услуг

func (db *DB) ListCategories(ctx context.Context) ([]*models.ServiceCategory, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, title, created_at FROM service_categories ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.ServiceCategory
	for rows.Next() {
		c := &models.ServiceCategory{}
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (db *DB) CreateCategory(ctx context.Context, c *models.ServiceCategory) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO service_categories (id, title) VALUES (?, ?)`, c.ID, c.Title)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (db *DB) UpdateCategory(ctx context.Context, c *models.ServiceCategory) error {
	result, err := db.ExecContext(ctx,
		`UPDATE service_categories SET title = ? WHERE id = ?`, c.Title, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteCategory(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM service_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Услуги

const serviceColumns = `id, category_id, title, description, icon, price, images, created_at`

func scanService(row interface{ Scan(...any) error }) (*models.Service, error) {
	var (
		s          models.Service
		categoryID sql.NullString
		imagesJSON string
	)
	err := row.Scan(&s.ID, &categoryID, &s.Title, &s.Description, &s.Icon, &s.Price, &imagesJSON, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.CategoryID = categoryID.String
	if imagesJSON != "" {
		if err := json.Unmarshal([]byte(imagesJSON), &s.Images); err != nil {
			return nil, fmt.Errorf("failed to decode service images: %w", err)
		}
	}
	return &s, nil
}

// ListServices возвращает услуги, опционально отфильтрованные по категории.
func (db *DB) ListServices(ctx context.Context, categoryID string) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY title ASC`
	args := []any{}
	if categoryID != "" {
		query = `SELECT ` + serviceColumns + ` FROM services WHERE category_id = ? ORDER BY title ASC`
		args = append(args, categoryID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	s, err := scanService(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	images, err := json.Marshal(s.Images)
	if err != nil {
		return fmt.Errorf("failed to encode service images: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO services (id, category_id, title, description, icon, price, images)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, nullString(s.CategoryID), s.Title, s.Description, s.Icon, s.Price, string(images))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (db *DB) UpdateService(ctx context.Context, s *models.Service) error {
	images, err := json.Marshal(s.Images)
	if err != nil {
		return fmt.Errorf("failed to encode service images: %w", err)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE services SET category_id = ?, title = ?, description = ?, icon = ?, price = ?, images = ?
         WHERE id = ?`,
		nullString(s.CategoryID), s.Title, s.Description, s.Icon, s.Price, string(images), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteService(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
