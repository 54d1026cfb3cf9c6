package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-BookingSync/pkg/types"
)

// Имена событий канала
const (
	EventJoin = "join"

	// EventOrderUpdatePrefix комната заказов пользователя: order-update-<userId>
	EventOrderUpdatePrefix  = "order-update-"
	EventOrderStatusChanged = "order-status-changed"

	EventServiceRequestAccepted    = "service-request-accepted"
	EventServiceRequestExpired     = "service-request-expired"
	EventServiceRequestNoProviders = "service-request-no-providers"
	EventServiceRequestWaveSent    = "service-request-wave-sent"
	EventServiceRequestCancelled   = "service-request-cancelled"
)

// EventKind вид события после разбора
type EventKind string

const (
	KindOrderUpdate               EventKind = "order_update"
	KindOrderStatusChanged        EventKind = "order_status_changed"
	KindServiceRequestAccepted    EventKind = "service_request_accepted"
	KindServiceRequestExpired     EventKind = "service_request_expired"
	KindServiceRequestNoProviders EventKind = "service_request_no_providers"
	KindServiceRequestWaveSent    EventKind = "service_request_wave_sent"
	KindServiceRequestCancelled   EventKind = "service_request_cancelled"
)

// Event одно из семи известных событий канала
type Event interface {
	Kind() EventKind
	BookingID() string
	OwnerID() string
}

// OrderPayload payload событий заказа
type OrderPayload struct {
	OrderID types.ID `json:"orderId"`
	ID      types.ID `json:"id"`
	UserID  types.ID `json:"userId"`
	Status  string   `json:"status"`

	Title            *string     `json:"title,omitempty"`
	Category         *string     `json:"category,omitempty"`
	TotalAmount      *float64    `json:"totalAmount,omitempty"`
	ProviderName     *string     `json:"providerName,omitempty"`
	ProviderPhone    *string     `json:"providerPhone,omitempty"`
	ServiceStartDate *types.Time `json:"serviceStartDate,omitempty"`
	ServiceEndDate   *types.Time `json:"serviceEndDate,omitempty"`
	Location         *string     `json:"location,omitempty"`
	CreatedAt        *types.Time `json:"createdAt,omitempty"`
	UpdatedAt        *types.Time `json:"updatedAt,omitempty"`
}

// BookingID возвращает orderId, а при его отсутствии id
func (p *OrderPayload) BookingID() string {
	return types.First(p.OrderID, p.ID).String()
}

// OwnerID возвращает владельца заказа
func (p *OrderPayload) OwnerID() string {
	return p.UserID.String()
}

// ServiceRequestPayload payload событий заявки на услугу
type ServiceRequestPayload struct {
	RequestID types.ID `json:"requestId"`
	ID        types.ID `json:"id"`
	SeekerID  types.ID `json:"seekerId"`
	UserID    types.ID `json:"userId"`
	Status    string   `json:"status"`

	Title                 *string     `json:"title,omitempty"`
	Category              *string     `json:"category,omitempty"`
	ProviderName          *string     `json:"providerName,omitempty"`
	ProviderPhone         *string     `json:"providerPhone,omitempty"`
	BudgetMin             *float64    `json:"budgetMin,omitempty"`
	BudgetMax             *float64    `json:"budgetMax,omitempty"`
	MatchedProvidersCount *int        `json:"matchedProvidersCount,omitempty"`
	Location              *string     `json:"location,omitempty"`
	CreatedAt             *types.Time `json:"createdAt,omitempty"`
	UpdatedAt             *types.Time `json:"updatedAt,omitempty"`
}

// BookingID возвращает requestId, а при его отсутствии id
func (p *ServiceRequestPayload) BookingID() string {
	return types.First(p.RequestID, p.ID).String()
}

// OwnerID возвращает seekerId, а при его отсутствии userId
func (p *ServiceRequestPayload) OwnerID() string {
	return types.First(p.SeekerID, p.UserID).String()
}

type OrderUpdateEvent struct{ OrderPayload }

func (OrderUpdateEvent) Kind() EventKind { return KindOrderUpdate }

type OrderStatusChangedEvent struct{ OrderPayload }

func (OrderStatusChangedEvent) Kind() EventKind { return KindOrderStatusChanged }

type ServiceRequestAcceptedEvent struct{ ServiceRequestPayload }

func (ServiceRequestAcceptedEvent) Kind() EventKind { return KindServiceRequestAccepted }

type ServiceRequestExpiredEvent struct{ ServiceRequestPayload }

func (ServiceRequestExpiredEvent) Kind() EventKind { return KindServiceRequestExpired }

type ServiceRequestNoProvidersEvent struct{ ServiceRequestPayload }

func (ServiceRequestNoProvidersEvent) Kind() EventKind { return KindServiceRequestNoProviders }

type ServiceRequestWaveSentEvent struct{ ServiceRequestPayload }

func (ServiceRequestWaveSentEvent) Kind() EventKind { return KindServiceRequestWaveSent }

type ServiceRequestCancelledEvent struct{ ServiceRequestPayload }

func (ServiceRequestCancelledEvent) Kind() EventKind { return KindServiceRequestCancelled }

// ParseEvent разбирает кадр в одно из известных событий и проверяет владельца
//
// Неизвестное имя события или комната заказов другого пользователя дают ErrUnroutableEvent,
// битый payload или отсутствие id/владельца - ErrMalformedEvent,
// чужой владелец - ErrForeignOwner.
func ParseEvent(frame Frame, userID string) (Event, error) {
	var (
		event Event
		err   error
	)

	switch frame.Event {
	case EventOrderStatusChanged:
		var e OrderStatusChangedEvent
		err = decodePayload(frame, &e.OrderPayload)
		if err == nil && strings.TrimSpace(e.Status) == "" {
			err = fmt.Errorf("%w: %s - empty status", ErrMalformedEvent, frame.Event)
		}
		event = &e
	case EventServiceRequestAccepted:
		var e ServiceRequestAcceptedEvent
		err = decodePayload(frame, &e.ServiceRequestPayload)
		event = &e
	case EventServiceRequestExpired:
		var e ServiceRequestExpiredEvent
		err = decodePayload(frame, &e.ServiceRequestPayload)
		event = &e
	case EventServiceRequestNoProviders:
		var e ServiceRequestNoProvidersEvent
		err = decodePayload(frame, &e.ServiceRequestPayload)
		event = &e
	case EventServiceRequestWaveSent:
		var e ServiceRequestWaveSentEvent
		err = decodePayload(frame, &e.ServiceRequestPayload)
		event = &e
	case EventServiceRequestCancelled:
		var e ServiceRequestCancelledEvent
		err = decodePayload(frame, &e.ServiceRequestPayload)
		event = &e
	default:
		room, ok := strings.CutPrefix(frame.Event, EventOrderUpdatePrefix)
		if !ok {
			return nil, fmt.Errorf("%w: unknown event %q", ErrUnroutableEvent, frame.Event)
		}
		if room != userID {
			return nil, fmt.Errorf("%w: order room %q does not belong to user %s", ErrUnroutableEvent, room, userID)
		}

		var e OrderUpdateEvent
		err = decodePayload(frame, &e.OrderPayload)
		// Комната уже адресована пользователю, владелец в payload необязателен
		if err == nil && e.UserID == "" {
			e.UserID = types.ID(room)
		}
		event = &e
	}
	if err != nil {
		return nil, err
	}

	if event.BookingID() == "" {
		return nil, fmt.Errorf("%w: %s - missing id", ErrMalformedEvent, frame.Event)
	}
	if event.OwnerID() == "" {
		return nil, fmt.Errorf("%w: %s - missing owner id for id=%s", ErrMalformedEvent, frame.Event, event.BookingID())
	}
	if event.OwnerID() != userID {
		return nil, fmt.Errorf("%w: %s - id=%s owner=%s", ErrForeignOwner, frame.Event, event.BookingID(), event.OwnerID())
	}

	return event, nil
}

func decodePayload(frame Frame, dst interface{}) error {
	if len(frame.Data) == 0 {
		return fmt.Errorf("%w: %s - empty payload", ErrMalformedEvent, frame.Event)
	}
	if err := json.Unmarshal(frame.Data, dst); err != nil {
		return fmt.Errorf("%w: %s - %v", ErrMalformedEvent, frame.Event, err)
	}
	return nil
}
