package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

// Контент публичного сайта: галерея, команда, FAQ, подвал, контакты,
// главная страница, образование, политика конфиденциальности.

// Галерея работ

func (db *DB) ListGallery(ctx context.Context) ([]*models.GalleryItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, title, description, image, created_at FROM gallery ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}
	defer rows.Close()

	var items []*models.GalleryItem
	for rows.Next() {
		g := &models.GalleryItem{}
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Image, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gallery item: %w", err)
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (db *DB) CreateGalleryItem(ctx context.Context, g *models.GalleryItem) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO gallery (id, title, description, image) VALUES (?, ?, ?, ?)`,
		g.ID, g.Title, g.Description, g.Image)
	if err != nil {
		return fmt.Errorf("failed to create gallery item: %w", err)
	}
	return nil
}

func (db *DB) UpdateGalleryItem(ctx context.Context, g *models.GalleryItem) error {
	result, err := db.ExecContext(ctx,
		`UPDATE gallery SET title = ?, description = ?, image = ? WHERE id = ?`,
		g.Title, g.Description, g.Image, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update gallery item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteGalleryItem(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "gallery", id)
}

// Команда

func (db *DB) ListTeamMembers(ctx context.Context) ([]*models.TeamMember, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, position, description, photo_url, sort_order, created_at, updated_at
         FROM team_members ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		m := &models.TeamMember{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Position, &m.Description, &m.PhotoURL,
			&m.SortOrder, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (db *DB) CreateTeamMember(ctx context.Context, m *models.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO team_members (id, name, position, description, photo_url, sort_order)
         VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Position, m.Description, m.PhotoURL, m.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

func (db *DB) UpdateTeamMember(ctx context.Context, m *models.TeamMember) error {
	result, err := db.ExecContext(ctx,
		`UPDATE team_members SET name = ?, position = ?, description = ?, photo_url = ?,
         sort_order = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Position, m.Description, m.PhotoURL, m.SortOrder, time.Now(), m.ID)
	if err != nil {
		return fmt.Errorf("failed to update team member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteTeamMember(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "team_members", id)
}

// FAQ

func (db *DB) ListFAQ(ctx context.Context) ([]*models.FAQItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, question, answer, sort_order, created_at, updated_at
         FROM faq ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list faq: %w", err)
	}
	defer rows.Close()

	var items []*models.FAQItem
	for rows.Next() {
		f := &models.FAQItem{}
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.SortOrder, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan faq item: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (db *DB) CreateFAQItem(ctx context.Context, f *models.FAQItem) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO faq (id, question, answer, sort_order) VALUES (?, ?, ?, ?)`,
		f.ID, f.Question, f.Answer, f.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to create faq item: %w", err)
	}
	return nil
}

func (db *DB) UpdateFAQItem(ctx context.Context, f *models.FAQItem) error {
	result, err := db.ExecContext(ctx,
		`UPDATE faq SET question = ?, answer = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		f.Question, f.Answer, f.SortOrder, time.Now(), f.ID)
	if err != nil {
		return fmt.Errorf("failed to update faq item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteFAQItem(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "faq", id)
}

// Ссылки подвала: одна строка, создается при первом сохранении

func (db *DB) GetFooterLinks(ctx context.Context) (*models.FooterLinks, error) {
	f := &models.FooterLinks{}
	err := db.QueryRowContext(ctx,
		`SELECT id, instagram, telegram, telegram_channel, vkontakte, whatsapp, created_at
         FROM footer_links LIMIT 1`).
		Scan(&f.ID, &f.Instagram, &f.Telegram, &f.TelegramChannel, &f.Vkontakte, &f.Whatsapp, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get footer links: %w", err)
	}
	return f, nil
}

func (db *DB) UpsertFooterLinks(ctx context.Context, f *models.FooterLinks) error {
	existing, err := db.GetFooterLinks(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing == nil {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO footer_links (id, instagram, telegram, telegram_channel, vkontakte, whatsapp)
             VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Instagram, f.Telegram, f.TelegramChannel, f.Vkontakte, f.Whatsapp)
	} else {
		f.ID = existing.ID
		_, err = db.ExecContext(ctx,
			`UPDATE footer_links SET instagram = ?, telegram = ?, telegram_channel = ?,
             vkontakte = ?, whatsapp = ? WHERE id = ?`,
			f.Instagram, f.Telegram, f.TelegramChannel, f.Vkontakte, f.Whatsapp, f.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert footer links: %w", err)
	}
	return nil
}

// Контакты

func (db *DB) GetContacts(ctx context.Context) (*models.Contacts, error) {
	c := &models.Contacts{}
	err := db.QueryRowContext(ctx,
		`SELECT id, address, phone, email, instagram, created_at FROM contacts LIMIT 1`).
		Scan(&c.ID, &c.Address, &c.Phone, &c.Email, &c.Instagram, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	return c, nil
}

func (db *DB) UpsertContacts(ctx context.Context, c *models.Contacts) error {
	existing, err := db.GetContacts(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing == nil {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO contacts (id, address, phone, email, instagram) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Address, c.Phone, c.Email, c.Instagram)
	} else {
		c.ID = existing.ID
		_, err = db.ExecContext(ctx,
			`UPDATE contacts SET address = ?, phone = ?, email = ?, instagram = ? WHERE id = ?`,
			c.Address, c.Phone, c.Email, c.Instagram, c.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert contacts: %w", err)
	}
	return nil
}

// Контент главной страницы

func (db *DB) GetMainContent(ctx context.Context) (*models.MainContent, error) {
	m := &models.MainContent{}
	var advantagesJSON string
	err := db.QueryRowContext(ctx,
		`SELECT id, about_title, about_description, about_advantages, main_photo_url, created_at, updated_at
         FROM main_content LIMIT 1`).
		Scan(&m.ID, &m.AboutTitle, &m.AboutDescription, &advantagesJSON, &m.MainPhotoURL, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get main content: %w", err)
	}
	if advantagesJSON != "" {
		if err := json.Unmarshal([]byte(advantagesJSON), &m.AboutAdvantages); err != nil {
			return nil, fmt.Errorf("failed to decode advantages: %w", err)
		}
	}
	return m, nil
}

func (db *DB) UpsertMainContent(ctx context.Context, m *models.MainContent) error {
	advantages, err := json.Marshal(m.AboutAdvantages)
	if err != nil {
		return fmt.Errorf("failed to encode advantages: %w", err)
	}

	existing, err := db.GetMainContent(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing == nil {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO main_content (id, about_title, about_description, about_advantages, main_photo_url)
             VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.AboutTitle, m.AboutDescription, string(advantages), m.MainPhotoURL)
	} else {
		m.ID = existing.ID
		_, err = db.ExecContext(ctx,
			`UPDATE main_content SET about_title = ?, about_description = ?, about_advantages = ?,
             main_photo_url = ?, updated_at = ? WHERE id = ?`,
			m.AboutTitle, m.AboutDescription, string(advantages), m.MainPhotoURL, time.Now(), m.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert main content: %w", err)
	}
	return nil
}

// Образование врача

func (db *DB) ListEducation(ctx context.Context) ([]*models.Education, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, title, description, created_at FROM education ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	defer rows.Close()

	var entries []*models.Education
	for rows.Next() {
		e := &models.Education{}
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (db *DB) CreateEducation(ctx context.Context, e *models.Education) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO education (id, title, description) VALUES (?, ?, ?)`,
		e.ID, e.Title, e.Description)
	if err != nil {
		return fmt.Errorf("failed to create education: %w", err)
	}
	return nil
}

func (db *DB) UpdateEducation(ctx context.Context, e *models.Education) error {
	result, err := db.ExecContext(ctx,
		`UPDATE education SET title = ?, description = ? WHERE id = ?`,
		e.Title, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update education: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteEducation(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM education_photos WHERE education_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete education photos: %w", err)
	}
	return db.deleteByID(ctx, "education", id)
}

func (db *DB) ListEducationPhotos(ctx context.Context, educationID string) ([]*models.EducationPhoto, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, education_id, photo_url, created_at FROM education_photos
         WHERE education_id = ? ORDER BY created_at ASC`, educationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list education photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.EducationPhoto
	for rows.Next() {
		p := &models.EducationPhoto{}
		var eduID sql.NullString
		if err := rows.Scan(&p.ID, &eduID, &p.PhotoURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan education photo: %w", err)
		}
		p.EducationID = eduID.String
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (db *DB) CreateEducationPhoto(ctx context.Context, p *models.EducationPhoto) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO education_photos (id, education_id, photo_url) VALUES (?, ?, ?)`,
		p.ID, nullString(p.EducationID), p.PhotoURL)
	if err != nil {
		return fmt.Errorf("failed to create education photo: %w", err)
	}
	return nil
}

func (db *DB) DeleteEducationPhoto(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "education_photos", id)
}

// Политика конфиденциальности

func (db *DB) GetPrivacyPolicy(ctx context.Context) (*models.PrivacyPolicy, error) {
	p := &models.PrivacyPolicy{}
	err := db.QueryRowContext(ctx,
		`SELECT id, title, document_url, created_at, updated_at FROM privacy_policy LIMIT 1`).
		Scan(&p.ID, &p.Title, &p.DocumentURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get privacy policy: %w", err)
	}
	return p, nil
}

func (db *DB) UpsertPrivacyPolicy(ctx context.Context, p *models.PrivacyPolicy) error {
	existing, err := db.GetPrivacyPolicy(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing == nil {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO privacy_policy (id, title, document_url) VALUES (?, ?, ?)`,
			p.ID, p.Title, p.DocumentURL)
	} else {
		p.ID = existing.ID
		_, err = db.ExecContext(ctx,
			`UPDATE privacy_policy SET title = ?, document_url = ?, updated_at = ? WHERE id = ?`,
			p.Title, p.DocumentURL, time.Now(), p.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert privacy policy: %w", err)
	}
	return nil
}

func (db *DB) deleteByID(ctx context.Context, table, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
