package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
)

// handleCheckAvailability отвечает списком занятых слотов на дату.
// Запрос: { "date": "DD.MM.YYYY" }.
func (s *HTTPServer) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	date, err := s.booking.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected DD.MM.YYYY")
		return
	}

	busySlots, vacationBlocked, err := s.booking.GetBusySlots(r.Context(), date)
	if err != nil {
		s.logger.Error().Err(err).Str("date", req.Date).Msg("availability check failed")
		writeError(w, http.StatusInternalServerError, "availability check failed")
		return
	}

	if busySlots == nil {
		busySlots = []string{}
	}

	resp := map[string]any{
		"success":   true,
		"busySlots": busySlots,
	}
	if vacationBlocked {
		resp["vacationBlocked"] = true
		resp["message"] = "Врач в отпуске, запись на эту дату недоступна"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSendBooking принимает заявку с публичной формы записи.
// Запрос: { name, phone, serviceType, categoryId?, serviceId?, date, time }.
func (s *HTTPServer) handleSendBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		ServiceType string `json:"serviceType"`
		CategoryID  string `json:"categoryId"`
		ServiceID   string `json:"serviceId"`
		Date        string `json:"date"`
		Time        string `json:"time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	serviceID := req.ServiceID
	if strings.EqualFold(req.ServiceType, "consultation") {
		serviceID = ""
	}

	_, err := s.booking.SubmitBooking(r.Context(), service.BookingRequest{
		Name:        req.Name,
		Phone:       req.Phone,
		ServiceID:   serviceID,
		ServiceType: req.ServiceType,
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		s.writeBookingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Заявка отправлена! Мы свяжемся с вами для подтверждения.",
	})
}

func (s *HTTPServer) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Проверьте заполнение полей заявки")
	case errors.Is(err, database.ErrPastDate):
		writeError(w, http.StatusBadRequest, "Дата записи уже прошла")
	case errors.Is(err, service.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, "Запись на эту дату пока не открыта")
	case errors.Is(err, database.ErrVacationBlocked):
		writeError(w, http.StatusConflict, "Врач в отпуске, выберите другую дату")
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "Это время уже занято, выберите другое")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Слишком много заявок, попробуйте позже")
	default:
		// Клиенту не сообщаем, какая из внешних систем отказала
		s.logger.Error().Err(err).Msg("booking submission failed")
		writeError(w, http.StatusInternalServerError, "Не удалось отправить заявку. Попробуйте позже.")
	}
}

func (s *HTTPServer) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		s.internalError(w, err, "list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	categoryID := strings.TrimSpace(r.URL.Query().Get("category_id"))
	services, err := s.repo.ListServices(r.Context(), categoryID)
	if err != nil {
		s.internalError(w, err, "list services")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *HTTPServer) handleListGallery(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.ListGallery(r.Context())
	if err != nil {
		s.internalError(w, err, "list gallery")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleListTeam(w http.ResponseWriter, r *http.Request) {
	members, err := s.repo.ListTeamMembers(r.Context())
	if err != nil {
		s.internalError(w, err, "list team")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *HTTPServer) handleListFAQ(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.ListFAQ(r.Context())
	if err != nil {
		s.internalError(w, err, "list faq")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleGetFooterLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.repo.GetFooterLinks(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		links = &models.FooterLinks{}
	} else if err != nil {
		s.internalError(w, err, "get footer links")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *HTTPServer) handleGetContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.repo.GetContacts(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		contacts = &models.Contacts{}
	} else if err != nil {
		s.internalError(w, err, "get contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *HTTPServer) handleGetMainContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.repo.GetMainContent(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		content = &models.MainContent{}
	} else if err != nil {
		s.internalError(w, err, "get main content")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// handleListEducation отдает блоки образования вместе с фотографиями.
func (s *HTTPServer) handleListEducation(w http.ResponseWriter, r *http.Request) {
	education, err := s.repo.ListEducation(r.Context())
	if err != nil {
		s.internalError(w, err, "list education")
		return
	}

	type educationWithPhotos struct {
		*models.Education
		Photos []*models.EducationPhoto `json:"photos"`
	}

	out := make([]educationWithPhotos, 0, len(education))
	for _, e := range education {
		photos, err := s.repo.ListEducationPhotos(r.Context(), e.ID)
		if err != nil {
			s.internalError(w, err, "list education photos")
			return
		}
		if photos == nil {
			photos = []*models.EducationPhoto{}
		}
		out = append(out, educationWithPhotos{Education: e, Photos: photos})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleGetPrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.repo.GetPrivacyPolicy(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		policy = &models.PrivacyPolicy{}
	} else if err != nil {
		s.internalError(w, err, "get privacy policy")
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (s *HTTPServer) internalError(w http.ResponseWriter, err error, op string) {
	s.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
