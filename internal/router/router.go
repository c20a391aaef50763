package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/media"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/session"
	subrepo "github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/subscription/repo"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user"
	userrepo "github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/repo"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, assets media.Store, sessCfg session.Config) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /vidtube-api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	users := userrepo.NewUserRepo(db)
	subs := subrepo.NewSubscriptionRepo(db)
	userSvc := user.NewService(users, subs, assets, nil)
	userHandler := user.NewHandler(userSvc, logger)

	tokens := session.NewTokenIssuer(sessCfg)
	store := session.NewUserTokenStore(users)
	sessSvc := session.NewService(userSvc, userSvc, tokens, store, logger)
	sessHandler := session.NewHandler(sessSvc, sessCfg, logger)

	guard := session.RequireAuth(tokens)
	viewer := session.OptionalAuth(tokens)

	// session routes
	mux.Handle("POST /vidtube-api/users/login", http.HandlerFunc(sessHandler.Login))
	mux.Handle("POST /vidtube-api/users/refresh-token", http.HandlerFunc(sessHandler.Refresh))
	mux.Handle("POST /vidtube-api/users/logout", guard(http.HandlerFunc(sessHandler.Logout)))
	mux.Handle("POST /vidtube-api/users/change-password", guard(http.HandlerFunc(sessHandler.ChangePassword)))

	// account and profile routes
	mux.Handle("POST /vidtube-api/users/register", http.HandlerFunc(userHandler.Register))
	mux.Handle("GET /vidtube-api/users/current-user", guard(http.HandlerFunc(userHandler.CurrentUser)))
	mux.Handle("PATCH /vidtube-api/users/update-account", guard(http.HandlerFunc(userHandler.UpdateAccount)))
	mux.Handle("PATCH /vidtube-api/users/avatar", guard(http.HandlerFunc(userHandler.UpdateAvatar)))
	mux.Handle("PATCH /vidtube-api/users/cover-image", guard(http.HandlerFunc(userHandler.UpdateCoverImage)))
	mux.Handle("GET /vidtube-api/users/c/{username}", viewer(http.HandlerFunc(userHandler.ChannelProfile)))

	// wrap with security headers middleware then logging middleware
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
