package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketConfig настройки websocket транспорта
type WebsocketConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// ReconnectAttempts количество попыток переподключения подряд, 0 - без переподключения
	ReconnectAttempts int
	BackoffMin        time.Duration
	BackoffMax        time.Duration
}

// WebsocketTransport транспорт поверх gorilla/websocket
// Сам переподключается с экспоненциальной задержкой и повторяет join
type WebsocketTransport struct {
	cfg    WebsocketConfig
	dialer *websocket.Dialer
	logger Logger
}

// NewWebsocketTransport создает websocket транспорт
func NewWebsocketTransport(cfg WebsocketConfig, logger Logger) *WebsocketTransport {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 500 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}

	return &WebsocketTransport{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: logger,
	}
}

// Dial открывает websocket соединение; userId передается в query
func (t *WebsocketTransport) Dial(ctx context.Context, userID string) (Conn, error) {
	endpoint, err := t.endpoint(userID)
	if err != nil {
		return nil, err
	}

	ws, err := t.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return &wsConn{
		transport: t,
		endpoint:  endpoint,
		ws:        ws,
		closed:    make(chan struct{}),
	}, nil
}

func (t *WebsocketTransport) endpoint(userID string) (string, error) {
	u, err := url.Parse(t.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url %q: %v", t.cfg.URL, err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t *WebsocketTransport) dial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	ws, resp, err := t.dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %v", err)
	}
	return ws, nil
}

func (t *WebsocketTransport) backoff(attempt int) time.Duration {
	delay := t.cfg.BackoffMin
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= t.cfg.BackoffMax {
			return t.cfg.BackoffMax
		}
	}
	return delay
}

type wsConn struct {
	transport *WebsocketTransport
	endpoint  string

	mu   sync.Mutex
	ws   *websocket.Conn
	join *JoinRequest

	writeMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) Join(ctx context.Context, req JoinRequest) error {
	c.mu.Lock()
	c.join = &req
	ws := c.ws
	c.mu.Unlock()

	return c.sendJoin(ctx, ws, req)
}

func (c *wsConn) sendJoin(ctx context.Context, ws *websocket.Conn, req JoinRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal join: %v", err)
	}

	deadline := time.Now().Add(c.transport.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %v", err)
	}
	if err := ws.WriteJSON(Frame{Event: EventJoin, Data: data}); err != nil {
		return fmt.Errorf("send join: %v", err)
	}
	return nil
}

func (c *wsConn) Receive(ctx context.Context) (Frame, error) {
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()

		_, data, err := ws.ReadMessage()
		if err == nil {
			var frame Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				c.transport.logger.Warn("Receive: skipping non-frame message: %v", err)
				continue
			}
			return frame, nil
		}

		if c.isClosed() {
			return Frame{}, ErrConnClosed
		}
		if ctx.Err() != nil {
			return Frame{}, ctx.Err()
		}
		if err := c.reconnect(ctx, err); err != nil {
			return Frame{}, err
		}
	}
}

// reconnect переподключается с экспоненциальной задержкой и повторяет join
// Пропущенные за время разрыва события не переигрываются
func (c *wsConn) reconnect(ctx context.Context, cause error) error {
	cfg := c.transport.cfg
	log := c.transport.logger

	for attempt := 1; attempt <= cfg.ReconnectAttempts; attempt++ {
		delay := c.transport.backoff(attempt)
		log.Warn("Receive: connection lost (%v), reconnect attempt %d/%d in %s", cause, attempt, cfg.ReconnectAttempts, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-c.closed:
			timer.Stop()
			return ErrConnClosed
		case <-timer.C:
		}

		ws, err := c.transport.dial(ctx, c.endpoint)
		if err != nil {
			cause = err
			continue
		}

		c.mu.Lock()
		if c.isClosed() {
			c.mu.Unlock()
			_ = ws.Close()
			return ErrConnClosed
		}
		old := c.ws
		c.ws = ws
		join := c.join
		c.mu.Unlock()
		_ = old.Close()

		if join != nil {
			if err := c.sendJoin(ctx, ws, *join); err != nil {
				cause = err
				continue
			}
		}

		log.Info("Receive: reconnected to %s after %d attempt(s)", c.endpoint, attempt)
		return nil
	}

	return fmt.Errorf("connection lost: %v", cause)
}

func (c *wsConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()

		err = ws.Close()
	})
	return err
}
