package bookingapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const unifiedResponse = `[
  {
    "id": "sr-2",
    "type": "service_request",
    "displayStatus": "searching",
    "originalStatus": "open",
    "title": "Deep cleaning",
    "budget": {"min": 100, "max": 250},
    "searchElapsedMinutes": 3,
    "matchedProvidersCount": 4,
    "createdAt": "2025-10-15T11:00:00Z"
  },
  {
    "id": "o-1",
    "type": "order",
    "displayStatus": "accepted",
    "originalStatus": "ACCEPTED",
    "title": "Camper van",
    "providerName": "Kim Rentals",
    "totalAmount": 320.5,
    "serviceStartDate": "2025-10-20",
    "serviceEndDate": "2025-10-22",
    "createdAt": "2025-10-14T09:30:00Z",
    "updatedAt": "2025-10-14T10:00:00Z"
  },
  {
    "type": "order",
    "title": "no id",
    "createdAt": "2025-10-13T09:30:00Z"
  },
  {
    "id": "x-1",
    "type": "rental",
    "title": "unknown type",
    "createdAt": "2025-10-12T09:30:00Z"
  }
]`

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings/unified", r.URL.Path)
		assert.Equal(t, "user-42", r.URL.Query().Get("userId"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(unifiedResponse))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nopLogger{})

	bookings, err := client.Fetch(context.Background(), "user-42")
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	// Порядок бэкенда сохраняется
	assert.Equal(t, "sr-2", bookings[0].ID)
	assert.Equal(t, "o-1", bookings[1].ID)

	sr := bookings[0]
	assert.Equal(t, domain.TypeServiceRequest, sr.Type)
	assert.Equal(t, domain.StatusSearching, sr.DisplayStatus)
	assert.Equal(t, &domain.Budget{Min: 100, Max: 250}, sr.Budget)
	require.NotNil(t, sr.SearchElapsedMinutes)
	assert.Equal(t, 3, *sr.SearchElapsedMinutes)
	assert.Equal(t, 4, sr.MatchedProvidersCount)
	assert.Equal(t, sr.CreatedAt, sr.UpdatedAt)

	order := bookings[1]
	// Статус вне закрытого набора выводится заново из originalStatus
	assert.Equal(t, domain.StatusMatched, order.DisplayStatus)
	assert.Equal(t, "ACCEPTED", order.OriginalStatus)
	require.NotNil(t, order.ServiceStartDate)
	assert.Equal(t, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), *order.ServiceStartDate)
	assert.Equal(t, time.Date(2025, 10, 14, 10, 0, 0, 0, time.UTC), order.UpdatedAt)
	assert.Nil(t, order.SearchElapsedMinutes)
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: ErrInvalidResponse},
		{name: "bad request", status: http.StatusBadRequest, wantErr: ErrInvalidResponse},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "malformed json", status: http.StatusOK, body: `{"id":`, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second, nopLogger{})

			_, err := client.Fetch(context.Background(), "user-42")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Fetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, nopLogger{})

	_, err := client.Fetch(context.Background(), "user-42")
	assert.ErrorIs(t, err, ErrInternal)
}

func TestClient_Fetch_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 5*time.Second, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, "user-42")
	assert.ErrorIs(t, err, ErrInternal)
}

func TestClient_Fetch_EmptyUserID(t *testing.T) {
	client := NewClient("http://localhost", time.Second, nopLogger{})

	_, err := client.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
