package booking

import (
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
	"github.com/m04kA/SMC-BookingSync/pkg/ptr"
)

// newWithDefaults создает запись для нового id с явными значениями по умолчанию
// Вызывающий гарантирует update.CanCreate()
func newWithDefaults(update domain.BookingUpdate, now time.Time) domain.UnifiedBooking {
	createdAt := now
	if update.CreatedAt != nil && !update.CreatedAt.IsZero() {
		createdAt = *update.CreatedAt
	}

	updatedAt := createdAt
	if update.UpdatedAt != nil && !update.UpdatedAt.IsZero() {
		updatedAt = *update.UpdatedAt
	}

	b := domain.UnifiedBooking{
		ID:                    update.ID,
		Type:                  *update.Type,
		DisplayStatus:         domain.DefaultDisplayStatus,
		OriginalStatus:        "",
		MatchedProvidersCount: domain.DefaultMatchedProvidersCount,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	}
	return b
}

// applyUpdate выполняет поверхностное слияние update в b
// Возвращает true, если обновление пыталось сменить type (такое поле игнорируется)
func applyUpdate(b *domain.UnifiedBooking, u domain.BookingUpdate) (typeConflict bool) {
	if u.Type != nil && *u.Type != b.Type {
		typeConflict = true
	}

	if u.DisplayStatus != nil && u.DisplayStatus.IsValid() {
		b.DisplayStatus = *u.DisplayStatus
	}
	if u.OriginalStatus != nil {
		b.OriginalStatus = *u.OriginalStatus
	}
	if u.Title != nil && *u.Title != "" {
		b.Title = *u.Title
	}

	if u.Subtitle != nil {
		b.Subtitle = ptr.Clone(u.Subtitle)
	}
	if u.Category != nil {
		b.Category = ptr.Clone(u.Category)
	}
	if u.ProviderName != nil {
		b.ProviderName = ptr.Clone(u.ProviderName)
	}
	if u.ProviderPhone != nil {
		b.ProviderPhone = ptr.Clone(u.ProviderPhone)
	}
	if u.TotalAmount != nil {
		b.TotalAmount = ptr.Clone(u.TotalAmount)
	}
	if u.Location != nil {
		b.Location = ptr.Clone(u.Location)
	}

	if u.ServiceStartDate != nil {
		b.ServiceStartDate = ptr.Clone(u.ServiceStartDate)
	}
	if u.ServiceEndDate != nil {
		b.ServiceEndDate = ptr.Clone(u.ServiceEndDate)
	}

	if u.Budget != nil {
		b.Budget = ptr.Clone(u.Budget)
	}
	if u.SearchElapsedMinutes != nil {
		b.SearchElapsedMinutes = ptr.Clone(u.SearchElapsedMinutes)
	}
	if u.MatchedProvidersCount != nil {
		b.MatchedProvidersCount = *u.MatchedProvidersCount
	}

	if u.CreatedAt != nil && !u.CreatedAt.IsZero() {
		b.CreatedAt = *u.CreatedAt
	}
	if u.UpdatedAt != nil && !u.UpdatedAt.IsZero() {
		b.UpdatedAt = *u.UpdatedAt
	}

	return typeConflict
}

// fillSearchElapsed считает searchElapsedMinutes в момент применения события,
// если событие переводит запись в searching и не принесло значение само
func fillSearchElapsed(b *domain.UnifiedBooking, u domain.BookingUpdate, now time.Time) {
	if !u.SetsSearching() || u.SearchElapsedMinutes != nil {
		return
	}
	minutes := domain.ElapsedMinutes(b.CreatedAt, now)
	b.SearchElapsedMinutes = &minutes
}
