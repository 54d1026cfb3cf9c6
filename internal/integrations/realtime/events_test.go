package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

var fixedNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func frame(event, data string) Frame {
	return Frame{Event: event, Data: json.RawMessage(data)}
}

func TestParseEvent_Routing(t *testing.T) {
	tests := []struct {
		name     string
		frame    Frame
		wantKind EventKind
		wantID   string
		wantErr  error
	}{
		{
			name:     "order update in own room",
			frame:    frame("order-update-u1", `{"orderId":"o-1","status":"paid"}`),
			wantKind: KindOrderUpdate,
			wantID:   "o-1",
		},
		{
			name:    "order update in foreign room",
			frame:   frame("order-update-u2", `{"orderId":"o-1","userId":"u2","status":"paid"}`),
			wantErr: ErrUnroutableEvent,
		},
		{
			name:     "order status changed with numeric ids",
			frame:    frame("order-status-changed", `{"id":17,"userId":"u1","status":"ACCEPTED"}`),
			wantKind: KindOrderStatusChanged,
			wantID:   "17",
		},
		{
			name:    "order status changed for foreign owner",
			frame:   frame("order-status-changed", `{"orderId":"o-1","userId":"u2","status":"accepted"}`),
			wantErr: ErrForeignOwner,
		},
		{
			name:    "order status changed without status",
			frame:   frame("order-status-changed", `{"orderId":"o-1","userId":"u1"}`),
			wantErr: ErrMalformedEvent,
		},
		{
			name:     "service request accepted by seeker id",
			frame:    frame("service-request-accepted", `{"requestId":"sr-1","seekerId":"u1"}`),
			wantKind: KindServiceRequestAccepted,
			wantID:   "sr-1",
		},
		{
			name:     "service request falls back to id and userId",
			frame:    frame("service-request-cancelled", `{"id":"sr-2","userId":"u1"}`),
			wantKind: KindServiceRequestCancelled,
			wantID:   "sr-2",
		},
		{
			name:    "missing id",
			frame:   frame("service-request-expired", `{"seekerId":"u1"}`),
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing owner",
			frame:   frame("service-request-no-providers", `{"requestId":"sr-1"}`),
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "broken json",
			frame:   frame("service-request-wave-sent", `{"requestId":`),
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "empty payload",
			frame:   Frame{Event: "service-request-wave-sent"},
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "unknown event",
			frame:   frame("chat-message", `{"id":"m-1","userId":"u1"}`),
			wantErr: ErrUnroutableEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseEvent(tt.frame, "u1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, event)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, event.Kind())
			assert.Equal(t, tt.wantID, event.BookingID())
			assert.Equal(t, "u1", event.OwnerID())
		})
	}
}

func TestDecode_ServiceRequestTransitions(t *testing.T) {
	tests := []struct {
		event      string
		wantStatus domain.DisplayStatus
		wantRaw    string
	}{
		{event: EventServiceRequestAccepted, wantStatus: domain.StatusMatched, wantRaw: "accepted"},
		{event: EventServiceRequestExpired, wantStatus: domain.StatusNoAccept, wantRaw: "expired"},
		{event: EventServiceRequestNoProviders, wantStatus: domain.StatusNoAccept, wantRaw: "no_providers"},
		{event: EventServiceRequestWaveSent, wantStatus: domain.StatusSearching, wantRaw: "wave_sent"},
		{event: EventServiceRequestCancelled, wantStatus: domain.StatusCancelled, wantRaw: "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			result := Decode(frame(tt.event, `{"requestId":"sr-1","seekerId":"u1"}`), "u1", fixedNow)
			require.False(t, result.Dropped(), "unexpected drop: %v", result.Err)

			u := result.Update
			assert.Equal(t, "sr-1", u.ID)
			require.NotNil(t, u.Type)
			assert.Equal(t, domain.TypeServiceRequest, *u.Type)
			require.NotNil(t, u.DisplayStatus)
			assert.Equal(t, tt.wantStatus, *u.DisplayStatus)
			require.NotNil(t, u.OriginalStatus)
			assert.Equal(t, tt.wantRaw, *u.OriginalStatus)
			// Без createdAt в payload минуты считает хранилище
			assert.Nil(t, u.SearchElapsedMinutes)
		})
	}
}

func TestDecode_WaveSentElapsedMinutes(t *testing.T) {
	createdAt := fixedNow.Add(-125 * time.Second).Format(time.RFC3339)
	data := `{"requestId":"sr-1","seekerId":"u1","title":"Plumbing","budgetMin":50,"budgetMax":80,"createdAt":"` + createdAt + `"}`

	result := Decode(frame(EventServiceRequestWaveSent, data), "u1", fixedNow)
	require.False(t, result.Dropped())

	u := result.Update
	require.NotNil(t, u.SearchElapsedMinutes)
	assert.Equal(t, 2, *u.SearchElapsedMinutes)
	assert.Equal(t, &domain.Budget{Min: 50, Max: 80}, u.Budget)
	require.NotNil(t, u.Title)
	assert.Equal(t, "Plumbing", *u.Title)
	assert.True(t, u.CanCreate())
}

func TestDecode_AcceptedOmitsElapsed(t *testing.T) {
	createdAt := fixedNow.Add(-10 * time.Minute).Format(time.RFC3339)
	data := `{"requestId":"sr-1","seekerId":"u1","providerName":"Ann","matchedProvidersCount":3,"createdAt":"` + createdAt + `"}`

	result := Decode(frame(EventServiceRequestAccepted, data), "u1", fixedNow)
	require.False(t, result.Dropped())

	u := result.Update
	assert.Nil(t, u.SearchElapsedMinutes)
	require.NotNil(t, u.ProviderName)
	assert.Equal(t, "Ann", *u.ProviderName)
	require.NotNil(t, u.MatchedProvidersCount)
	assert.Equal(t, 3, *u.MatchedProvidersCount)
}

func TestDecode_OrderStatusDerivation(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.DisplayStatus
	}{
		{raw: "PENDING", want: domain.StatusPending},
		{raw: "accepted", want: domain.StatusMatched},
		{raw: "Paid", want: domain.StatusInProgress},
		{raw: "completed", want: domain.StatusCompleted},
		{raw: "canceled", want: domain.StatusCancelled},
		{raw: "rejected", want: domain.StatusNoAccept},
		{raw: "on_hold", want: domain.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			data := `{"orderId":"o-1","userId":"u1","status":"` + tt.raw + `","totalAmount":120.5}`
			result := Decode(frame(EventOrderStatusChanged, data), "u1", fixedNow)
			require.False(t, result.Dropped())

			u := result.Update
			require.NotNil(t, u.DisplayStatus)
			assert.Equal(t, tt.want, *u.DisplayStatus)
			assert.Equal(t, tt.raw, *u.OriginalStatus)
			assert.Equal(t, domain.TypeOrder, *u.Type)
			assert.Equal(t, 120.5, *u.TotalAmount)
		})
	}
}

func TestDecode_OrderUpdateWithoutStatus(t *testing.T) {
	data := `{"orderId":"o-1","providerPhone":"+100","serviceStartDate":"2025-10-20"}`

	result := Decode(frame("order-update-u1", data), "u1", fixedNow)
	require.False(t, result.Dropped())

	u := result.Update
	// Отсутствующий статус не превращается в pending
	assert.Nil(t, u.DisplayStatus)
	assert.Nil(t, u.OriginalStatus)
	require.NotNil(t, u.ServiceStartDate)
	assert.Equal(t, time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), *u.ServiceStartDate)
	assert.Equal(t, "+100", *u.ProviderPhone)
}

func TestDecode_DropReasons(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  DropReason
	}{
		{name: "foreign owner", frame: frame(EventOrderStatusChanged, `{"orderId":"o-1","userId":"u2","status":"paid"}`), want: DropForeignOwner},
		{name: "unknown event", frame: frame("ping", `{}`), want: DropUnroutable},
		{name: "malformed", frame: frame(EventServiceRequestAccepted, `[1,2,3]`), want: DropMalformed},
		{name: "null payload", frame: frame(EventServiceRequestAccepted, `null`), want: DropMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.frame, "u1", fixedNow)
			assert.True(t, result.Dropped())
			assert.Equal(t, tt.want, result.Drop)
			assert.Error(t, result.Err)
		})
	}
}

func TestBudgetOf(t *testing.T) {
	lo, hi := 40.0, 90.0

	assert.Nil(t, budgetOf(nil, nil))
	assert.Equal(t, &domain.Budget{Min: 40, Max: 90}, budgetOf(&lo, &hi))
	assert.Equal(t, &domain.Budget{Min: 40, Max: 40}, budgetOf(&lo, nil))
	assert.Equal(t, &domain.Budget{Min: 90, Max: 90}, budgetOf(nil, &hi))
}
