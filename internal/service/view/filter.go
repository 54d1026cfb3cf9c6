package view

import (
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

// Filter возвращает записи вкладки в порядке хранилища (сначала новые)
//
// Статус главнее даты: активный статус всегда попадает в upcoming, даже если
// дата уже прошла, завершенный - всегда в past, даже если дата в будущем.
// Набор статусов закрыт, поэтому вкладки не пересекаются и вместе покрывают весь список.
func Filter(list []domain.UnifiedBooking, tab domain.Tab) []domain.UnifiedBooking {
	out := make([]domain.UnifiedBooking, 0, len(list))
	for i := range list {
		if TabOf(&list[i]) == tab {
			out = append(out, list[i])
		}
	}
	return out
}

// TabOf возвращает вкладку, к которой относится запись
func TabOf(b *domain.UnifiedBooking) domain.Tab {
	if b.DisplayStatus.IsActive() {
		return domain.TabUpcoming
	}
	return domain.TabPast
}

// Partition делит список на обе вкладки за один проход
func Partition(list []domain.UnifiedBooking) (upcoming, past []domain.UnifiedBooking) {
	upcoming = make([]domain.UnifiedBooking, 0, len(list))
	past = make([]domain.UnifiedBooking, 0, len(list))
	for i := range list {
		if TabOf(&list[i]) == domain.TabUpcoming {
			upcoming = append(upcoming, list[i])
		} else {
			past = append(past, list[i])
		}
	}
	return upcoming, past
}

// DatePassed сравнивает только даты: true, если эффективная дата раньше сегодняшнего дня
// Календарная дата записи берется как есть, без перевода в часовой пояс now
func DatePassed(b *domain.UnifiedBooking, now time.Time) bool {
	return dateOnly(b.EffectiveDate()).Before(dateOnly(now))
}

// dateOnly возвращает календарную дату t как полночь UTC
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
