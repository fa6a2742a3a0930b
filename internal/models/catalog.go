package models

import "time"

type ServiceCategory struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Price       string    `json:"price"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayLabel — строка услуги для уведомлений: "Чистка лица (3500 ₽)".
func (s *Service) DisplayLabel() string {
	if s.Price == "" {
		return s.Title
	}
	return s.Title + " (" + s.Price + ")"
}
