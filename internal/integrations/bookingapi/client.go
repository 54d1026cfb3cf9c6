package bookingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для получения единого списка бронирований
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Fetch получает полный текущий список бронирований пользователя
// Порядок ответа бэкенда (сначала новые по createdAt) сохраняется без пересортировки.
// Запрос отменяется вместе с ctx.
func (c *Client) Fetch(ctx context.Context, userID string) ([]domain.UnifiedBooking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidRequest)
	}

	endpoint := fmt.Sprintf("%s/bookings/unified?userId=%s", c.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid user ID format", ErrInvalidResponse)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	// Парсим ответ
	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	bookings := make([]domain.UnifiedBooking, 0, len(records))
	for i := range records {
		booking, rederived, err := records[i].ToDomain()
		if err != nil {
			c.log.Warn("Fetch: skipping record #%d for user=%s (request=%s): %v", i, userID, requestID, err)
			continue
		}
		if rederived {
			c.log.Warn("Fetch: record id=%s had display status %q outside the enum, derived %s",
				booking.ID, records[i].DisplayStatus, booking.DisplayStatus)
		}
		bookings = append(bookings, booking)
	}

	c.log.Info("Fetch: received %d bookings for user=%s (request=%s)", len(bookings), userID, requestID)
	return bookings, nil
}
