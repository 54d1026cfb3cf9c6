package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

// UpdateHandler получает нормализованное частичное обновление
type UpdateHandler func(update domain.BookingUpdate)

// ErrorHandler получает ошибки уровня соединения (ErrTransport)
type ErrorHandler func(err error)

// Channel адаптер push-канала
//
// Жизненный цикл: NewChannel -> Connect -> Disconnect -> ... -> Dispose.
// В каждый момент живо не больше одного соединения; Connect сначала закрывает предыдущее.
// После Disconnect кадры, которые еще не переданы обработчику, отбрасываются.
// Disconnect не ждет обработчик, уже начавший работу: его можно вызывать из самого обработчика.
type Channel struct {
	transport    Transport
	logger       Logger
	metrics      Metrics
	timeProvider TimeProvider
	newSessionID func() string

	// connectMu сериализует Connect; mu защищает только состояние сессии
	connectMu sync.Mutex

	mu       sync.Mutex
	session  *session
	disposed bool
	// gen растет при каждой остановке сессии; по нему Connect узнает,
	// что во время рукопожатия был вызван Disconnect или Dispose
	gen uint64
}

type session struct {
	id       string
	userID   string
	conn     Conn
	cancel   context.CancelFunc
	onUpdate UpdateHandler
	onError  ErrorHandler

	active    atomic.Bool
	connected atomic.Bool
	done      chan struct{}
}

// ChannelOption настройка адаптера
type ChannelOption func(*Channel)

// WithChannelMetrics подключает метрики
func WithChannelMetrics(m Metrics) ChannelOption {
	return func(c *Channel) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithChannelTimeProvider подменяет источник времени для расчета searchElapsedMinutes
func WithChannelTimeProvider(tp TimeProvider) ChannelOption {
	return func(c *Channel) {
		c.timeProvider = tp
	}
}

// WithSessionIDGenerator подменяет генератор sessionId для сообщения join
func WithSessionIDGenerator(gen func() string) ChannelOption {
	return func(c *Channel) {
		c.newSessionID = gen
	}
}

// NewChannel создает адаптер поверх транспорта
func NewChannel(transport Transport, logger Logger, opts ...ChannelOption) *Channel {
	c := &Channel{
		transport:    transport,
		logger:       logger,
		metrics:      noopMetrics{},
		timeProvider: &RealTimeProvider{},
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect открывает соединение для userID и входит в его комнату
//
// Предыдущее соединение закрывается до открытия нового. Ошибка установки соединения
// передается в onError и возвращается вызывающему.
func (c *Channel) Connect(ctx context.Context, userID string, onUpdate UpdateHandler, onError ErrorHandler) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if onUpdate == nil {
		onUpdate = func(domain.BookingUpdate) {}
	}
	if onError == nil {
		onError = func(error) {}
	}

	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.stopLocked("reconnect")
	gen := c.gen
	c.mu.Unlock()

	// Рукопожатие идет без c.mu: IsConnected и Disconnect его не ждут
	conn, err := c.transport.Dial(ctx, userID)
	if err != nil {
		return c.failConnect(onError, fmt.Errorf("%w: Connect - dial for user=%s: %v", ErrTransport, userID, err))
	}

	sessionID := c.newSessionID()
	if err := conn.Join(ctx, JoinRequest{UserID: userID, SessionID: sessionID}); err != nil {
		_ = conn.Close()
		return c.failConnect(onError, fmt.Errorf("%w: Connect - join for user=%s: %v", ErrTransport, userID, err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || gen != c.gen {
		_ = conn.Close()
		c.logger.Warn("Connect: session=%s of user=%s abandoned, channel was stopped during handshake", sessionID, userID)
		if c.disposed {
			return ErrDisposed
		}
		return fmt.Errorf("%w: Connect - stopped during handshake for user=%s", ErrConnClosed, userID)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:       sessionID,
		userID:   userID,
		conn:     conn,
		cancel:   cancel,
		onUpdate: onUpdate,
		onError:  onError,
		done:     make(chan struct{}),
	}
	s.active.Store(true)
	s.connected.Store(true)
	c.session = s

	go c.readLoop(loopCtx, s)

	c.metrics.ChannelConnected(true)
	c.logger.Info("Connect: joined room of user=%s, session=%s", userID, sessionID)
	return nil
}

func (c *Channel) failConnect(onError ErrorHandler, err error) error {
	c.metrics.ChannelTransportError()
	c.metrics.ChannelConnected(false)
	c.logger.Error("Connect: %v", err)
	onError(err)
	return err
}

// Disconnect закрывает текущее соединение; повторный вызов ничего не делает
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked("disconnect")
}

// IsConnected возвращает true, пока соединение живо
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session != nil && c.session.connected.Load()
}

// Dispose завершает жизненный цикл адаптера; после него Connect возвращает ErrDisposed
func (c *Channel) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.stopLocked("dispose")
	c.disposed = true
	c.logger.Info("Dispose: channel disposed")
}

// stopLocked гасит сессию; вызывается под мьютексом
// Не ждет завершения цикла чтения: обработчик может сам вызвать Disconnect
func (c *Channel) stopLocked(reason string) {
	c.gen++
	s := c.session
	if s == nil {
		return
	}
	c.session = nil

	s.active.Store(false)
	s.connected.Store(false)
	s.cancel()
	if err := s.conn.Close(); err != nil {
		c.logger.Warn("Disconnect: close connection of user=%s: %v", s.userID, err)
	}

	c.metrics.ChannelConnected(false)
	c.logger.Info("Disconnect: session=%s of user=%s closed (%s)", s.id, s.userID, reason)
}

func (c *Channel) readLoop(ctx context.Context, s *session) {
	defer close(s.done)

	for {
		frame, err := s.conn.Receive(ctx)
		if err != nil {
			if !s.active.Load() || ctx.Err() != nil {
				return
			}

			s.connected.Store(false)
			c.metrics.ChannelTransportError()
			c.metrics.ChannelConnected(false)

			terr := fmt.Errorf("%w: Receive - user=%s: %v", ErrTransport, s.userID, err)
			c.logger.Error("readLoop: %v", terr)
			if s.active.Load() {
				s.onError(terr)
			}
			return
		}

		result := Decode(frame, s.userID, c.timeProvider.Now())
		if result.Dropped() {
			c.metrics.ChannelEventDropped(string(result.Drop))
			c.logger.Warn("readLoop: dropped event %q (%s): %v", frame.Event, result.Drop, result.Err)
			continue
		}

		// Сессия могла быть закрыта, пока кадр разбирался
		if !s.active.Load() {
			return
		}
		c.metrics.ChannelEventAccepted(string(result.Event.Kind()))
		s.onUpdate(result.Update)
	}
}
