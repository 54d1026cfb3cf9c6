package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// Frame кадр канала: имя события и сырой payload
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRequest сообщение о входе в комнату пользователя
type JoinRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

// Transport примитив транспорта push-канала
// Переподключение и backoff - забота транспорта, адаптер их не реализует
type Transport interface {
	Dial(ctx context.Context, userID string) (Conn, error)
}

// Conn одно соединение транспорта
type Conn interface {
	// Join отправляет сообщение входа в комнату пользователя
	Join(ctx context.Context, req JoinRequest) error
	// Receive блокируется до следующего кадра; после Close возвращает ошибку
	Receive(ctx context.Context) (Frame, error)
	Close() error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics интерфейс для учета метрик канала
type Metrics interface {
	ChannelEventAccepted(kind string)
	ChannelEventDropped(reason string)
	ChannelConnected(connected bool)
	ChannelTransportError()
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

type noopMetrics struct{}

func (noopMetrics) ChannelEventAccepted(string) {}
func (noopMetrics) ChannelEventDropped(string)  {}
func (noopMetrics) ChannelConnected(bool)       {}
func (noopMetrics) ChannelTransportError()      {}
