package models

import "time"

type GalleryItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

type TeamMember struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Position    string    `json:"position"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photo_url"`
	SortOrder   int64     `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type FAQItem struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	SortOrder int64     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FooterLinks — единственная строка с соцсетями для подвала сайта.
type FooterLinks struct {
	ID              string    `json:"id"`
	Instagram       string    `json:"instagram"`
	Telegram        string    `json:"telegram"`
	TelegramChannel string    `json:"telegram_channel"`
	Vkontakte       string    `json:"vkontakte"`
	Whatsapp        string    `json:"whatsapp"`
	CreatedAt       time.Time `json:"created_at"`
}

type Contacts struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Instagram string    `json:"instagram"`
	CreatedAt time.Time `json:"created_at"`
}

type MainContent struct {
	ID               string    `json:"id"`
	AboutTitle       string    `json:"about_title"`
	AboutDescription string    `json:"about_description"`
	AboutAdvantages  []string  `json:"about_advantages"`
	MainPhotoURL     string    `json:"main_photo_url"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Education struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type EducationPhoto struct {
	ID          string    `json:"id"`
	EducationID string    `json:"education_id"`
	PhotoURL    string    `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type PrivacyPolicy struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	DocumentURL string    `json:"document_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
