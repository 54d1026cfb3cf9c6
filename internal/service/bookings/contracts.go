package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
	"github.com/m04kA/SMC-BookingSync/internal/integrations/realtime"
)

// BookingFetcher интерфейс клиента полной загрузки
type BookingFetcher interface {
	Fetch(ctx context.Context, userID string) ([]domain.UnifiedBooking, error)
}

// BookingStore интерфейс хранилища согласованного списка
type BookingStore interface {
	ReplaceAll(list []domain.UnifiedBooking) int
	Upsert(update domain.BookingUpdate) (domain.UnifiedBooking, error)
	List() []domain.UnifiedBooking
	GetByID(id string) (domain.UnifiedBooking, error)
	RefreshSearchElapsed(now time.Time) int
}

// PushChannel интерфейс адаптера push-канала
type PushChannel interface {
	Connect(ctx context.Context, userID string, onUpdate realtime.UpdateHandler, onError realtime.ErrorHandler) error
	Disconnect()
	IsConnected() bool
	Dispose()
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс для учета метрик загрузки
type Metrics interface {
	FetchObserved(result string, duration time.Duration)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Subscriber получатель уведомлений об изменениях
// OnUpdate вызывается с итоговой записью после каждого примененного события канала,
// OnError - для ошибок соединения. Оба поля необязательны.
// Disconnect и Close ждут завершения уже начатого уведомления, поэтому из обработчиков
// их нужно вызывать асинхронно.
type Subscriber struct {
	OnUpdate func(booking domain.UnifiedBooking)
	OnError  func(err error)
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

type noopMetrics struct{}

func (noopMetrics) FetchObserved(string, time.Duration) {}
