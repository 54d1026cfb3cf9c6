package realtime

import (
	"errors"
	"strings"
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
	"github.com/m04kA/SMC-BookingSync/internal/service/status"
	"github.com/m04kA/SMC-BookingSync/pkg/ptr"
	"github.com/m04kA/SMC-BookingSync/pkg/types"
)

// DropReason причина отбрасывания кадра
type DropReason string

const (
	DropNone         DropReason = ""
	DropMalformed    DropReason = "malformed"
	DropUnroutable   DropReason = "unroutable"
	DropForeignOwner DropReason = "foreign_owner"
)

// Result явный результат нормализации кадра: обновление или причина отбрасывания
type Result struct {
	Event  Event
	Update domain.BookingUpdate
	Drop   DropReason
	Err    error
}

// Dropped возвращает true, если кадр не должен попасть в хранилище
func (r Result) Dropped() bool {
	return r.Drop != DropNone
}

// Decode разбирает кадр и превращает его в частичное обновление
// Никогда не паникует: любой сбой разбора становится DropReason
func Decode(frame Frame, userID string, now time.Time) Result {
	event, err := ParseEvent(frame, userID)
	if err != nil {
		return Result{Drop: dropReasonOf(err), Err: err}
	}
	return Result{Event: event, Update: Normalize(event, now)}
}

// Normalize превращает событие в частичное обновление бронирования
//
// searchElapsedMinutes заполняется только для перехода в searching и только если
// в payload есть createdAt; иначе его посчитает хранилище в момент применения.
func Normalize(event Event, now time.Time) domain.BookingUpdate {
	switch e := event.(type) {
	case *OrderUpdateEvent:
		return orderUpdate(&e.OrderPayload)
	case *OrderStatusChangedEvent:
		return orderUpdate(&e.OrderPayload)
	case *ServiceRequestAcceptedEvent:
		return requestUpdate(&e.ServiceRequestPayload, status.TransitionAccepted, now)
	case *ServiceRequestExpiredEvent:
		return requestUpdate(&e.ServiceRequestPayload, status.TransitionExpired, now)
	case *ServiceRequestNoProvidersEvent:
		return requestUpdate(&e.ServiceRequestPayload, status.TransitionNoProviders, now)
	case *ServiceRequestWaveSentEvent:
		return requestUpdate(&e.ServiceRequestPayload, status.TransitionWaveSent, now)
	case *ServiceRequestCancelledEvent:
		return requestUpdate(&e.ServiceRequestPayload, status.TransitionCancelled, now)
	}
	return domain.BookingUpdate{ID: event.BookingID()}
}

func orderUpdate(p *OrderPayload) domain.BookingUpdate {
	u := domain.BookingUpdate{
		ID:   p.BookingID(),
		Type: ptr.Ptr(domain.TypeOrder),

		Title:            nonEmpty(p.Title),
		Category:         ptr.Clone(p.Category),
		TotalAmount:      ptr.Clone(p.TotalAmount),
		ProviderName:     ptr.Clone(p.ProviderName),
		ProviderPhone:    ptr.Clone(p.ProviderPhone),
		Location:         ptr.Clone(p.Location),
		ServiceStartDate: timeOf(p.ServiceStartDate),
		ServiceEndDate:   timeOf(p.ServiceEndDate),
		CreatedAt:        timeOf(p.CreatedAt),
		UpdatedAt:        timeOf(p.UpdatedAt),
	}

	if raw := strings.TrimSpace(p.Status); raw != "" {
		u.DisplayStatus = ptr.Ptr(status.DeriveOrderStatus(raw))
		u.OriginalStatus = ptr.Ptr(raw)
	}
	return u
}

func requestUpdate(p *ServiceRequestPayload, transition status.Transition, now time.Time) domain.BookingUpdate {
	display, _ := status.ForTransition(transition)

	original := strings.TrimSpace(p.Status)
	if original == "" {
		original = string(transition)
	}

	u := domain.BookingUpdate{
		ID:             p.BookingID(),
		Type:           ptr.Ptr(domain.TypeServiceRequest),
		DisplayStatus:  ptr.Ptr(display),
		OriginalStatus: ptr.Ptr(original),

		Title:                 nonEmpty(p.Title),
		Category:              ptr.Clone(p.Category),
		ProviderName:          ptr.Clone(p.ProviderName),
		ProviderPhone:         ptr.Clone(p.ProviderPhone),
		Location:              ptr.Clone(p.Location),
		Budget:                budgetOf(p.BudgetMin, p.BudgetMax),
		MatchedProvidersCount: ptr.Clone(p.MatchedProvidersCount),
		CreatedAt:             timeOf(p.CreatedAt),
		UpdatedAt:             timeOf(p.UpdatedAt),
	}

	if display == domain.StatusSearching && u.CreatedAt != nil {
		u.SearchElapsedMinutes = ptr.Ptr(domain.ElapsedMinutes(*u.CreatedAt, now))
	}
	return u
}

func budgetOf(budgetMin, budgetMax *float64) *domain.Budget {
	if budgetMin == nil && budgetMax == nil {
		return nil
	}
	lo := ptr.Deref(budgetMin, ptr.Deref(budgetMax, 0))
	hi := ptr.Deref(budgetMax, lo)
	return &domain.Budget{Min: lo, Max: hi}
}

func timeOf(t *types.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Ptr()
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return ptr.Clone(s)
}

func dropReasonOf(err error) DropReason {
	switch {
	case errors.Is(err, ErrForeignOwner):
		return DropForeignOwner
	case errors.Is(err, ErrUnroutableEvent):
		return DropUnroutable
	default:
		return DropMalformed
	}
}
