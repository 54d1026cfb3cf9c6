package bookingapi

import (
	"fmt"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
	"github.com/m04kA/SMC-BookingSync/internal/service/status"
	"github.com/m04kA/SMC-BookingSync/pkg/types"
)

// Record запись единого списка бронирований в формате бэкенда
type Record struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	DisplayStatus  string   `json:"displayStatus"`
	OriginalStatus string   `json:"originalStatus"`
	Title          string   `json:"title"`
	Subtitle       *string  `json:"subtitle,omitempty"`
	Category       *string  `json:"category,omitempty"`
	ProviderName   *string  `json:"providerName,omitempty"`
	ProviderPhone  *string  `json:"providerPhone,omitempty"`
	TotalAmount    *float64 `json:"totalAmount,omitempty"`
	Location       *string  `json:"location,omitempty"`

	ServiceStartDate *types.Time `json:"serviceStartDate,omitempty"`
	ServiceEndDate   *types.Time `json:"serviceEndDate,omitempty"`

	Budget                *domain.Budget `json:"budget,omitempty"`
	SearchElapsedMinutes  *int           `json:"searchElapsedMinutes,omitempty"`
	MatchedProvidersCount *int           `json:"matchedProvidersCount,omitempty"`

	CreatedAt types.Time  `json:"createdAt"`
	UpdatedAt *types.Time `json:"updatedAt,omitempty"`
}

// ToDomain конвертирует запись в domain модель
// Второе значение true, если статус отображения пришел вне закрытого набора
// и был выведен заново из originalStatus
func (r *Record) ToDomain() (domain.UnifiedBooking, bool, error) {
	if r.ID == "" {
		return domain.UnifiedBooking{}, false, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	bookingType := domain.BookingType(r.Type)
	if !bookingType.IsValid() {
		return domain.UnifiedBooking{}, false, fmt.Errorf("%w: id=%s has unknown type %q", ErrInvalidRecord, r.ID, r.Type)
	}

	displayStatus, ok := domain.ParseDisplayStatus(r.DisplayStatus)
	rederived := !ok
	if rederived {
		displayStatus = status.Derive(bookingType, r.OriginalStatus)
	}

	b := domain.UnifiedBooking{
		ID:               r.ID,
		Type:             bookingType,
		DisplayStatus:    displayStatus,
		OriginalStatus:   r.OriginalStatus,
		Title:            r.Title,
		Subtitle:         r.Subtitle,
		Category:         r.Category,
		ProviderName:     r.ProviderName,
		ProviderPhone:    r.ProviderPhone,
		TotalAmount:      r.TotalAmount,
		Location:         r.Location,
		ServiceStartDate: r.ServiceStartDate.Ptr(),
		ServiceEndDate:   r.ServiceEndDate.Ptr(),
		Budget:           r.Budget,
		CreatedAt:        r.CreatedAt.Time,
		UpdatedAt:        r.CreatedAt.Time,
	}

	// searchElapsedMinutes имеет смысл только в статусе searching
	if displayStatus == domain.StatusSearching {
		b.SearchElapsedMinutes = r.SearchElapsedMinutes
	}
	if r.MatchedProvidersCount != nil {
		b.MatchedProvidersCount = *r.MatchedProvidersCount
	}
	if r.UpdatedAt != nil && !r.UpdatedAt.IsZero() {
		b.UpdatedAt = r.UpdatedAt.Time
	}

	return b, rederived, nil
}
