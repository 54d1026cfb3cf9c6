package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// HeaderRequestID заголовок идентификатора запроса
const HeaderRequestID = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "requestID"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RequestLogging присваивает запросу X-Request-ID и пишет строку лога после ответа
// Пришедший от клиента X-Request-ID сохраняется
func RequestLogging(logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, requestID)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))

			logf := logger.Info
			switch {
			case rec.status >= http.StatusInternalServerError:
				logf = logger.Error
			case rec.status >= http.StatusBadRequest:
				logf = logger.Warn
			}
			logf("%s %s -> %d in %s (request=%s)", r.Method, r.URL.Path, rec.status, time.Since(start), requestID)
		})
	}
}

// GetRequestID возвращает идентификатор запроса из контекста
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}
