package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/export"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
)

const maxUploadBytes = 10 << 20 // 10 MiB

func (s *HTTPServer) registerAdminRoutes(mux *http.ServeMux) {
	// Записи
	mux.HandleFunc("GET /api/v1/admin/appointments", s.handleAdminListAppointments)
	mux.HandleFunc("POST /api/v1/admin/appointments", s.handleAdminCreateAppointment)
	mux.HandleFunc("GET /api/v1/admin/appointments/export", s.handleAdminExportAppointments)
	mux.HandleFunc("POST /api/v1/admin/appointments/{id}/status", s.handleAdminAppointmentStatus)

	// Каталог
	mux.HandleFunc("POST /api/v1/admin/categories", s.handleAdminCreateCategory)
	mux.HandleFunc("PUT /api/v1/admin/categories/{id}", s.handleAdminUpdateCategory)
	mux.HandleFunc("DELETE /api/v1/admin/categories/{id}", s.handleAdminDeleteCategory)
	mux.HandleFunc("POST /api/v1/admin/services", s.handleAdminCreateService)
	mux.HandleFunc("PUT /api/v1/admin/services/{id}", s.handleAdminUpdateService)
	mux.HandleFunc("DELETE /api/v1/admin/services/{id}", s.handleAdminDeleteService)

	// Отпуска
	mux.HandleFunc("GET /api/v1/admin/vacations", s.handleAdminListVacations)
	mux.HandleFunc("POST /api/v1/admin/vacations", s.handleAdminCreateVacation)
	mux.HandleFunc("PUT /api/v1/admin/vacations/{id}", s.handleAdminUpdateVacation)
	mux.HandleFunc("DELETE /api/v1/admin/vacations/{id}", s.handleAdminDeleteVacation)

	// Контент
	mux.HandleFunc("POST /api/v1/admin/gallery", s.handleAdminCreateGalleryItem)
	mux.HandleFunc("PUT /api/v1/admin/gallery/{id}", s.handleAdminUpdateGalleryItem)
	mux.HandleFunc("DELETE /api/v1/admin/gallery/{id}", s.handleAdminDeleteGalleryItem)
	mux.HandleFunc("POST /api/v1/admin/team", s.handleAdminCreateTeamMember)
	mux.HandleFunc("PUT /api/v1/admin/team/{id}", s.handleAdminUpdateTeamMember)
	mux.HandleFunc("DELETE /api/v1/admin/team/{id}", s.handleAdminDeleteTeamMember)
	mux.HandleFunc("POST /api/v1/admin/faq", s.handleAdminCreateFAQItem)
	mux.HandleFunc("PUT /api/v1/admin/faq/{id}", s.handleAdminUpdateFAQItem)
	mux.HandleFunc("DELETE /api/v1/admin/faq/{id}", s.handleAdminDeleteFAQItem)
	mux.HandleFunc("PUT /api/v1/admin/footer-links", s.handleAdminUpdateFooterLinks)
	mux.HandleFunc("PUT /api/v1/admin/contacts", s.handleAdminUpdateContacts)
	mux.HandleFunc("PUT /api/v1/admin/main-content", s.handleAdminUpdateMainContent)
	mux.HandleFunc("POST /api/v1/admin/education", s.handleAdminCreateEducation)
	mux.HandleFunc("PUT /api/v1/admin/education/{id}", s.handleAdminUpdateEducation)
	mux.HandleFunc("DELETE /api/v1/admin/education/{id}", s.handleAdminDeleteEducation)
	mux.HandleFunc("POST /api/v1/admin/education/{id}/photos", s.handleAdminAddEducationPhoto)
	mux.HandleFunc("DELETE /api/v1/admin/education-photos/{id}", s.handleAdminDeleteEducationPhoto)
	mux.HandleFunc("PUT /api/v1/admin/privacy-policy", s.handleAdminUpdatePrivacyPolicy)

	// Файлы
	mux.HandleFunc("POST /api/v1/admin/upload", s.handleAdminUpload)
}

// parseRange читает границы периода из query (?from=DD.MM.YYYY&to=DD.MM.YYYY).
// По умолчанию месяц назад и два месяца вперед.
func (s *HTTPServer) parseRange(r *http.Request) (time.Time, time.Time, error) {
	loc := s.repo.Location()
	now := time.Now().In(loc)
	start := now.AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	end := now.AddDate(0, models.DefaultExportRangeMonthsAfter, 0)

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation(service.DateLayout, raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", raw)
		}
		start = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.ParseInLocation(service.DateLayout, raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", raw)
		}
		end = parsed.Add(24*time.Hour - time.Second)
	}
	return start, end, nil
}

func (s *HTTPServer) handleAdminListAppointments(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointments, err := s.repo.GetAppointmentsByDateRange(r.Context(), start, end)
	if err != nil {
		s.internalError(w, err, "list appointments")
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

// handleAdminCreateAppointment — запись, заведенная оператором вручную
// (например, по телефонному звонку). Проверка слота сохраняется.
func (s *HTTPServer) handleAdminCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientName   string `json:"client_name"`
		ClientPhone  string `json:"client_phone"`
		ServiceID    string `json:"service_id"`
		ServiceLabel string `json:"service_label"`
		Time         string `json:"appointment_time"` // DD.MM.YYYY HH:MM
		Status       string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	loc := s.repo.Location()
	at, err := time.ParseInLocation(service.DateLayout+" 15:04", strings.TrimSpace(req.Time), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment_time; expected DD.MM.YYYY HH:MM")
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusConfirmed
	}
	label := req.ServiceLabel
	if label == "" {
		label = models.DefaultServiceLabel
	}

	appointment := &models.Appointment{
		ID:           uuid.NewString(),
		ClientName:   strings.TrimSpace(req.ClientName),
		ClientPhone:  strings.TrimSpace(req.ClientPhone),
		ServiceID:    req.ServiceID,
		ServiceLabel: label,
		Time:         at,
		Status:       status,
	}
	if appointment.ClientName == "" || appointment.ClientPhone == "" {
		writeError(w, http.StatusBadRequest, "client_name and client_phone are required")
		return
	}

	if err := s.booking.RegisterAppointment(r.Context(), appointment); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			writeError(w, http.StatusConflict, "slot already taken")
			return
		}
		s.internalError(w, err, "create appointment")
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

// handleAdminAppointmentStatus переводит запись между статусами.
// Тело: { "action": "confirm" | "cancel" | "complete", "version": N }.
func (s *HTTPServer) handleAdminAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Action  string `json:"action"`
		Version int64  `json:"version"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var err error
	switch req.Action {
	case "confirm":
		err = s.booking.ConfirmAppointment(r.Context(), id, req.Version, "admin")
	case "cancel":
		err = s.booking.CancelAppointment(r.Context(), id, req.Version, "admin")
	case "complete":
		err = s.booking.CompleteAppointment(r.Context(), id, req.Version, "admin")
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "appointment was modified concurrently")
	default:
		s.internalError(w, err, "update appointment status")
	}
}

func (s *HTTPServer) handleAdminExportAppointments(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointments, err := s.repo.GetAppointmentsByDateRange(r.Context(), start, end)
	if err != nil {
		s.internalError(w, err, "export appointments")
		return
	}

	fileName := fmt.Sprintf("appointments_%s_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)

	if err := export.WriteAppointments(w, appointments, start, end, s.repo.Location()); err != nil {
		s.logger.Error().Err(err).Msg("export write failed")
	}
}

func (s *HTTPServer) handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.ServiceCategory
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(c.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.repo.CreateCategory(r.Context(), &c); err != nil {
		s.internalError(w, err, "create category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *HTTPServer) handleAdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.ServiceCategory
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateCategory(r.Context(), &c), c)
}

func (s *HTTPServer) handleAdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteCategory(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminCreateService(w http.ResponseWriter, r *http.Request) {
	var svc models.Service
	if err := decodeJSON(r, &svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(svc.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.repo.CreateService(r.Context(), &svc); err != nil {
		s.internalError(w, err, "create service")
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *HTTPServer) handleAdminUpdateService(w http.ResponseWriter, r *http.Request) {
	var svc models.Service
	if err := decodeJSON(r, &svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	svc.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateService(r.Context(), &svc), svc)
}

func (s *HTTPServer) handleAdminDeleteService(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteService(r.Context(), r.PathValue("id")), nil)
}

type vacationRequest struct {
	StartDate   string `json:"start_date"` // DD.MM.YYYY
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

func (s *HTTPServer) decodeVacation(r *http.Request) (*models.VacationPeriod, error) {
	var req vacationRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON body")
	}

	loc := s.repo.Location()
	start, err := time.ParseInLocation(service.DateLayout, strings.TrimSpace(req.StartDate), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date; expected DD.MM.YYYY")
	}
	end, err := time.ParseInLocation(service.DateLayout, strings.TrimSpace(req.EndDate), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date; expected DD.MM.YYYY")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end_date is before start_date")
	}

	return &models.VacationPeriod{
		StartDate:   start,
		EndDate:     end,
		Description: req.Description,
	}, nil
}

func (s *HTTPServer) handleAdminListVacations(w http.ResponseWriter, r *http.Request) {
	periods, err := s.repo.ListVacationPeriods(r.Context())
	if err != nil {
		s.internalError(w, err, "list vacations")
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *HTTPServer) handleAdminCreateVacation(w http.ResponseWriter, r *http.Request) {
	period, err := s.decodeVacation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.CreateVacationPeriod(r.Context(), period); err != nil {
		s.internalError(w, err, "create vacation")
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (s *HTTPServer) handleAdminUpdateVacation(w http.ResponseWriter, r *http.Request) {
	period, err := s.decodeVacation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateVacationPeriod(r.Context(), period), period)
}

func (s *HTTPServer) handleAdminDeleteVacation(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteVacationPeriod(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminCreateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var g models.GalleryItem
	if err := decodeJSON(r, &g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.repo.CreateGalleryItem(r.Context(), &g); err != nil {
		s.internalError(w, err, "create gallery item")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *HTTPServer) handleAdminUpdateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var g models.GalleryItem
	if err := decodeJSON(r, &g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	g.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateGalleryItem(r.Context(), &g), g)
}

func (s *HTTPServer) handleAdminDeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteGalleryItem(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminCreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var m models.TeamMember
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.repo.CreateTeamMember(r.Context(), &m); err != nil {
		s.internalError(w, err, "create team member")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *HTTPServer) handleAdminUpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	var m models.TeamMember
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateTeamMember(r.Context(), &m), m)
}

func (s *HTTPServer) handleAdminDeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteTeamMember(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminCreateFAQItem(w http.ResponseWriter, r *http.Request) {
	var f models.FAQItem
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.repo.CreateFAQItem(r.Context(), &f); err != nil {
		s.internalError(w, err, "create faq item")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *HTTPServer) handleAdminUpdateFAQItem(w http.ResponseWriter, r *http.Request) {
	var f models.FAQItem
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	f.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateFAQItem(r.Context(), &f), f)
}

func (s *HTTPServer) handleAdminDeleteFAQItem(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteFAQItem(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminUpdateFooterLinks(w http.ResponseWriter, r *http.Request) {
	var f models.FooterLinks
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.writeMutation(w, s.repo.UpsertFooterLinks(r.Context(), &f), f)
}

func (s *HTTPServer) handleAdminUpdateContacts(w http.ResponseWriter, r *http.Request) {
	var c models.Contacts
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.writeMutation(w, s.repo.UpsertContacts(r.Context(), &c), c)
}

func (s *HTTPServer) handleAdminUpdateMainContent(w http.ResponseWriter, r *http.Request) {
	var m models.MainContent
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.writeMutation(w, s.repo.UpsertMainContent(r.Context(), &m), m)
}

func (s *HTTPServer) handleAdminCreateEducation(w http.ResponseWriter, r *http.Request) {
	var e models.Education
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.repo.CreateEducation(r.Context(), &e); err != nil {
		s.internalError(w, err, "create education")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *HTTPServer) handleAdminUpdateEducation(w http.ResponseWriter, r *http.Request) {
	var e models.Education
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	e.ID = r.PathValue("id")
	s.writeMutation(w, s.repo.UpdateEducation(r.Context(), &e), e)
}

func (s *HTTPServer) handleAdminDeleteEducation(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteEducation(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminAddEducationPhoto(w http.ResponseWriter, r *http.Request) {
	var p models.EducationPhoto
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.EducationID = r.PathValue("id")
	if strings.TrimSpace(p.PhotoURL) == "" {
		writeError(w, http.StatusBadRequest, "photo_url is required")
		return
	}
	if err := s.repo.CreateEducationPhoto(r.Context(), &p); err != nil {
		s.internalError(w, err, "create education photo")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *HTTPServer) handleAdminDeleteEducationPhoto(w http.ResponseWriter, r *http.Request) {
	s.writeMutation(w, s.repo.DeleteEducationPhoto(r.Context(), r.PathValue("id")), nil)
}

func (s *HTTPServer) handleAdminUpdatePrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	var p models.PrivacyPolicy
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.writeMutation(w, s.repo.UpsertPrivacyPolicy(r.Context(), &p), p)
}

// handleAdminUpload принимает multipart-файл и возвращает публичный URL.
func (s *HTTPServer) handleAdminUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	url, err := s.uploads.Save(r.Context(), header.Filename, file)
	if err != nil {
		s.internalError(w, err, "save upload")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "url": url})
}

// writeMutation единообразно отвечает на мутации админки.
func (s *HTTPServer) writeMutation(w http.ResponseWriter, err error, payload any) {
	switch {
	case err == nil:
		if payload == nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, payload)
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.internalError(w, err, "admin mutation")
	}
}
