package status

import (
	"strings"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

// Transition событие жизненного цикла заявки на услугу
// Для заявок статус отображения задается самим событием, без таблицы сырых статусов
type Transition string

const (
	TransitionAccepted    Transition = "accepted"
	TransitionExpired     Transition = "expired"
	TransitionNoProviders Transition = "no_providers"
	TransitionWaveSent    Transition = "wave_sent"
	TransitionCancelled   Transition = "cancelled"
)

// orderStatuses таблица сырых статусов заказа (ключи в нижнем регистре)
var orderStatuses = map[string]domain.DisplayStatus{
	"pending":   domain.StatusPending,
	"accepted":  domain.StatusMatched,
	"paid":      domain.StatusInProgress,
	"completed": domain.StatusCompleted,
	"cancelled": domain.StatusCancelled,
	"canceled":  domain.StatusCancelled,
	"rejected":  domain.StatusNoAccept,
}

var transitions = map[Transition]domain.DisplayStatus{
	TransitionAccepted:    domain.StatusMatched,
	TransitionExpired:     domain.StatusNoAccept,
	TransitionNoProviders: domain.StatusNoAccept,
	TransitionWaveSent:    domain.StatusSearching,
	TransitionCancelled:   domain.StatusCancelled,
}

// serviceRequestStatuses сырые статусы заявки, которые может вернуть полная загрузка
var serviceRequestStatuses = map[string]domain.DisplayStatus{
	"searching":    domain.StatusSearching,
	"open":         domain.StatusSearching,
	"wave_sent":    domain.StatusSearching,
	"accepted":     domain.StatusMatched,
	"matched":      domain.StatusMatched,
	"in_progress":  domain.StatusInProgress,
	"completed":    domain.StatusCompleted,
	"expired":      domain.StatusNoAccept,
	"no_providers": domain.StatusNoAccept,
	"cancelled":    domain.StatusCancelled,
	"canceled":     domain.StatusCancelled,
}

// DeriveOrderStatus маппит сырой статус заказа в статус отображения
// Регистр не учитывается, неизвестный статус дает pending
func DeriveOrderStatus(raw string) domain.DisplayStatus {
	if s, ok := orderStatuses[normalize(raw)]; ok {
		return s
	}
	return domain.StatusPending
}

// ForTransition возвращает статус отображения для события заявки на услугу
func ForTransition(t Transition) (domain.DisplayStatus, bool) {
	s, ok := transitions[t]
	return s, ok
}

// Derive восстанавливает статус отображения записи по ее типу и сырому статусу
// Используется, когда бэкенд прислал статус вне закрытого набора
func Derive(bookingType domain.BookingType, raw string) domain.DisplayStatus {
	if bookingType == domain.TypeOrder {
		return DeriveOrderStatus(raw)
	}
	if s, ok := serviceRequestStatuses[normalize(raw)]; ok {
		return s
	}
	return domain.StatusPending
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
