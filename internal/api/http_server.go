package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/metrics"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
)

// HTTPServer exposes the public booking API, site content endpoints
// and the admin panel API.
type HTTPServer struct {
	cfg     config.APIConfig
	booking *service.BookingService
	repo    domain.Repository
	uploads domain.BlobStorage
	logger  *zerolog.Logger
	server  *http.Server
	auth    *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	booking *service.BookingService,
	repo domain.Repository,
	uploads domain.BlobStorage,
	uploadsDir string,
	uploadsPrefix string,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		booking: booking,
		repo:    repo,
		uploads: uploads,
		logger:  logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()

	// Публичные эндпоинты формы записи
	mux.HandleFunc("POST /api/v1/check-availability", srv.handleCheckAvailability)
	mux.HandleFunc("POST /api/v1/send-booking", srv.handleSendBooking)

	// Публичный контент сайта
	mux.HandleFunc("GET /api/v1/categories", srv.handleListCategories)
	mux.HandleFunc("GET /api/v1/services", srv.handleListServices)
	mux.HandleFunc("GET /api/v1/gallery", srv.handleListGallery)
	mux.HandleFunc("GET /api/v1/team", srv.handleListTeam)
	mux.HandleFunc("GET /api/v1/faq", srv.handleListFAQ)
	mux.HandleFunc("GET /api/v1/footer-links", srv.handleGetFooterLinks)
	mux.HandleFunc("GET /api/v1/contacts", srv.handleGetContacts)
	mux.HandleFunc("GET /api/v1/main-content", srv.handleGetMainContent)
	mux.HandleFunc("GET /api/v1/education", srv.handleListEducation)
	mux.HandleFunc("GET /api/v1/privacy-policy", srv.handleGetPrivacyPolicy)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Загруженные файлы (фото услуг, галерея, документы)
	if uploadsDir != "" {
		mux.Handle("GET "+uploadsPrefix+"/", http.StripPrefix(uploadsPrefix+"/", http.FileServer(http.Dir(uploadsDir))))
	}

	srv.registerAdminRoutes(mux)

	handler := srv.loggingMiddleware(corsMiddleware(cfg.CORS, srv.auth.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler возвращает корневой обработчик. Используется в тестах.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"success": false, "error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
