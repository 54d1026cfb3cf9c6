package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
	bookingRepo "github.com/m04kA/SMC-BookingSync/internal/infra/storage/booking"
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings/models"
	"github.com/m04kA/SMC-BookingSync/internal/service/view"
)

// Результаты загрузки для метрик
const (
	fetchApplied   = "applied"
	fetchFailed    = "failed"
	fetchCancelled = "cancelled"
)

// Service движок синхронизации бронирований одного сеанса
//
// Полная загрузка заменяет список целиком, события канала сливаются по одному;
// оба пути пишут в хранилище, которое сериализует изменения.
type Service struct {
	fetcher      BookingFetcher
	store        BookingStore
	channel      PushChannel
	timeProvider TimeProvider
	logger       Logger
	metrics      Metrics

	elapsedRefresh time.Duration

	// connectMu сериализует подключение и отключение канала
	connectMu sync.Mutex
	// deliverMu держится на все время применения события и уведомления подписчика
	deliverMu sync.Mutex

	mu          sync.Mutex
	userID      string
	subscriber  Subscriber
	fetchGen    uint64
	fetchCancel context.CancelFunc
	connGen     uint64
	tickerStop  chan struct{}
	closed      bool
}

// Option настройка сервиса
type Option func(*Service)

// WithTimeProvider подменяет источник времени
func WithTimeProvider(tp TimeProvider) Option {
	return func(s *Service) {
		s.timeProvider = tp
	}
}

// WithMetrics подключает метрики
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithElapsedRefresh включает периодический пересчет минут поиска, пока канал подключен
// Нулевой интервал выключает пересчет
func WithElapsedRefresh(interval time.Duration) Option {
	return func(s *Service) {
		s.elapsedRefresh = interval
	}
}

// NewService создает новый экземпляр сервиса синхронизации
func NewService(
	fetcher BookingFetcher,
	store BookingStore,
	channel PushChannel,
	logger Logger,
	opts ...Option,
) *Service {
	s := &Service{
		fetcher:      fetcher,
		store:        store,
		channel:      channel,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		metrics:      noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch загружает полный список пользователя и заменяет им содержимое хранилища
//
// При ошибке хранилище не меняется. Если за время запроса была вызвана CancelFetch,
// начата более новая загрузка или сервис закрыт, результат отбрасывается (ErrFetchCancelled).
func (s *Service) Fetch(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	switchUser := s.userID != "" && s.userID != userID
	if switchUser {
		s.logger.Info("Fetch: session switches from user=%s to user=%s", s.userID, userID)
		s.detachLocked()
	}
	s.userID = userID

	if s.fetchCancel != nil {
		s.fetchCancel()
	}
	s.fetchGen++
	gen := s.fetchGen
	fetchCtx, cancel := context.WithCancel(ctx)
	s.fetchCancel = cancel
	s.mu.Unlock()

	defer cancel()

	// Канал прежнего пользователя закрывается до загрузки нового
	if switchUser {
		s.connectMu.Lock()
		s.waitDeliveries()
		s.channel.Disconnect()
		s.connectMu.Unlock()
	}

	s.logger.Info("Fetch: loading bookings for user=%s", userID)
	start := s.timeProvider.Now()

	list, err := s.fetcher.Fetch(fetchCtx, userID)
	elapsed := s.timeProvider.Now().Sub(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.fetchGen || fetchCtx.Err() != nil {
		s.metrics.FetchObserved(fetchCancelled, elapsed)
		s.logger.Warn("Fetch: result for user=%s discarded, request was cancelled or superseded", userID)
		return 0, fmt.Errorf("%w: Fetch - user=%s", ErrFetchCancelled, userID)
	}
	s.fetchCancel = nil

	if err != nil {
		s.metrics.FetchObserved(fetchFailed, elapsed)
		s.logger.Error("Fetch: failed to load bookings for user=%s: %v", userID, err)
		return 0, fmt.Errorf("%w: Fetch - user=%s: %v", ErrFetchFailed, userID, err)
	}

	n := s.store.ReplaceAll(list)
	s.metrics.FetchObserved(fetchApplied, elapsed)
	s.logger.Info("Fetch: applied %d bookings for user=%s in %s", n, userID, elapsed)

	return n, nil
}

// CancelFetch отменяет идущую загрузку; ее результат не будет применен
func (s *Service) CancelFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelFetchLocked()
}

func (s *Service) cancelFetchLocked() {
	if s.fetchCancel != nil {
		s.fetchCancel()
		s.fetchCancel = nil
	}
	s.fetchGen++
}

// Connect подключает push-канал пользователя
// Предыдущее подключение закрывается; уведомления идут подписчику sub
func (s *Service) Connect(ctx context.Context, userID string, sub Subscriber) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.connGen++
	gen := s.connGen
	s.userID = userID
	s.subscriber = sub
	s.mu.Unlock()

	// Канал может синхронно вызвать onError, поэтому мьютекс сервиса здесь не держим
	err := s.channel.Connect(ctx, userID,
		func(update domain.BookingUpdate) { s.applyEvent(gen, update) },
		func(err error) { s.reportError(gen, err) },
	)
	if err != nil {
		s.logger.Error("Connect: push channel for user=%s: %v", userID, err)
		return fmt.Errorf("%w: Connect - user=%s: %v", ErrConnectFailed, userID, err)
	}

	s.mu.Lock()
	if gen == s.connGen {
		s.startElapsedRefreshLocked()
	}
	s.mu.Unlock()

	s.logger.Info("Connect: push channel connected for user=%s", userID)
	return nil
}

// Disconnect отключает push-канал
// После возврата события прежнего подключения не меняют хранилище и не доходят до подписчика;
// уже начатое применение события завершается до возврата.
func (s *Service) Disconnect() {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	s.detachLocked()
	userID := s.userID
	s.mu.Unlock()

	s.waitDeliveries()

	// Канал вызывается без мьютекса сервиса: его обработчики сами берут этот мьютекс
	s.channel.Disconnect()
	s.logger.Info("Disconnect: push channel disconnected for user=%s", userID)
}

// waitDeliveries дожидается завершения уже начатого применения события
func (s *Service) waitDeliveries() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
}

// detachLocked отвязывает подписчика и останавливает пересчет; вызывается под мьютексом
// После него обработчики прежнего подключения ничего не делают
func (s *Service) detachLocked() {
	s.connGen++
	s.subscriber = Subscriber{}
	s.stopElapsedRefreshLocked()
}

// IsConnected возвращает состояние push-канала
func (s *Service) IsConnected() bool {
	return s.channel.IsConnected()
}

// SessionUser возвращает пользователя текущего сеанса
func (s *Service) SessionUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID
}

// Connection возвращает состояние push-канала сеанса
func (s *Service) Connection() models.ConnectionResponse {
	return models.ConnectionResponse{
		UserID:    s.SessionUser(),
		Connected: s.IsConnected(),
	}
}

// GetView возвращает вкладку списка на текущий момент
// Чтение не ждет идущих слияний
func (s *Service) GetView(tab domain.Tab) (*models.BookingListResponse, error) {
	if _, ok := domain.ParseTab(string(tab)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}

	filtered := view.Filter(s.store.List(), tab)
	return models.FromDomainBookingList(s.SessionUser(), tab, filtered, s.timeProvider.Now()), nil
}

// GetByID возвращает одно бронирование в виде для отображения
func (s *Service) GetByID(id string) (*models.BookingView, error) {
	booking, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: store error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - store error: %v", ErrInternal, err)
	}

	v := models.FromDomainBooking(booking, s.timeProvider.Now())
	return &v, nil
}

// Close освобождает сервис: отменяет загрузку, отключает и освобождает канал
func (s *Service) Close() {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelFetchLocked()
	s.detachLocked()
	s.mu.Unlock()

	s.waitDeliveries()
	s.channel.Dispose()
	s.logger.Info("Close: sync service closed")
}

// applyEvent применяет событие подключения gen
// Проверка поколения и слияние идут под s.mu, поэтому Disconnect не может вклиниться между ними
func (s *Service) applyEvent(gen uint64, update domain.BookingUpdate) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if gen != s.connGen {
		s.mu.Unlock()
		return
	}
	merged, err := s.store.Upsert(update)
	sub := s.subscriber
	s.mu.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrMergeRejected), errors.Is(err, bookingRepo.ErrInvalidUpdate):
			s.logger.Warn("applyEvent: update for id=%s rejected: %v", update.ID, err)
		case errors.Is(err, bookingRepo.ErrStaleUpdate):
			s.logger.Info("applyEvent: stale update for id=%s skipped", update.ID)
		default:
			s.logger.Error("applyEvent: failed to merge id=%s: %v", update.ID, err)
		}
		return
	}

	if sub.OnUpdate != nil {
		sub.OnUpdate(merged)
	}
}

func (s *Service) reportError(gen uint64, err error) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if gen != s.connGen {
		s.mu.Unlock()
		return
	}
	sub := s.subscriber
	s.mu.Unlock()

	s.logger.Error("reportError: push channel error: %v", err)
	if sub.OnError != nil {
		sub.OnError(err)
	}
}

func (s *Service) startElapsedRefreshLocked() {
	if s.elapsedRefresh <= 0 || s.tickerStop != nil {
		return
	}

	stop := make(chan struct{})
	s.tickerStop = stop

	go func() {
		ticker := time.NewTicker(s.elapsedRefresh)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := s.store.RefreshSearchElapsed(s.timeProvider.Now()); n > 0 {
					s.logger.Info("elapsedRefresh: updated search time of %d bookings", n)
				}
			}
		}
	}()
}

func (s *Service) stopElapsedRefreshLocked() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}
