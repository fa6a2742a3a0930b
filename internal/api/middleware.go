package api

import (
	"net/http"
	"strings"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
)

// corsMiddleware отвечает на preflight-запросы и проставляет CORS-заголовки
// для разрешенных источников. Пустой список источников отключает CORS.
func corsMiddleware(cfg config.CORSConfig, next http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return next
	}

	allowed := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowOrigin, ok := matchOrigin(origin, allowed)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", allowOrigin)
		headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Key")
		headers.Set("Access-Control-Max-Age", "600")
		headers.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func matchOrigin(origin string, allowed []string) (string, bool) {
	for _, candidate := range allowed {
		if candidate == "*" {
			return "*", true
		}
		if strings.EqualFold(candidate, origin) {
			return origin, true
		}
	}
	return "", false
}
