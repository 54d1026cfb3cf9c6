package models

import (
	"time"

	"github.com/m04kA/SMC-BookingSync/internal/domain"
	"github.com/m04kA/SMC-BookingSync/internal/service/status"
	"github.com/m04kA/SMC-BookingSync/internal/service/view"
)

// Response модели

// BookingView бронирование в виде, готовом для отображения
type BookingView struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	DisplayStatus  string `json:"displayStatus"`
	OriginalStatus string `json:"originalStatus"`
	Title          string `json:"title"`

	Subtitle      *string  `json:"subtitle,omitempty"`
	Category      *string  `json:"category,omitempty"`
	ProviderName  *string  `json:"providerName,omitempty"`
	ProviderPhone *string  `json:"providerPhone,omitempty"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	Location      *string  `json:"location,omitempty"`

	ServiceStartDate *string `json:"serviceStartDate,omitempty"` // "2025-10-15"
	ServiceEndDate   *string `json:"serviceEndDate,omitempty"`
	EffectiveDate    string  `json:"effectiveDate"`
	DatePassed       bool    `json:"datePassed"`

	Budget                *domain.Budget `json:"budget,omitempty"`
	SearchElapsedMinutes  *int           `json:"searchElapsedMinutes,omitempty"`
	MatchedProvidersCount int            `json:"matchedProvidersCount"`

	Presentation status.Presentation `json:"presentation"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований вкладки
type BookingListResponse struct {
	UserID   string        `json:"userId"`
	Tab      string        `json:"tab"`
	Bookings []BookingView `json:"bookings"`
}

// ConnectionResponse состояние push-канала
type ConnectionResponse struct {
	UserID    string `json:"userId"`
	Connected bool   `json:"connected"`
}

// RefreshResponse результат полной загрузки
type RefreshResponse struct {
	UserID string `json:"userId"`
	Count  int    `json:"count"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b domain.UnifiedBooking, now time.Time) BookingView {
	v := BookingView{
		ID:                    b.ID,
		Type:                  string(b.Type),
		DisplayStatus:         string(b.DisplayStatus),
		OriginalStatus:        b.OriginalStatus,
		Title:                 b.Title,
		Subtitle:              b.Subtitle,
		Category:              b.Category,
		ProviderName:          b.ProviderName,
		ProviderPhone:         b.ProviderPhone,
		TotalAmount:           b.TotalAmount,
		Location:              b.Location,
		EffectiveDate:         b.EffectiveDate().Format(domain.DateFormat),
		DatePassed:            view.DatePassed(&b, now),
		Budget:                b.Budget,
		MatchedProvidersCount: b.MatchedProvidersCount,
		Presentation:          status.Present(b),
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}

	if b.ServiceStartDate != nil {
		start := b.ServiceStartDate.Format(domain.DateFormat)
		v.ServiceStartDate = &start
	}
	if b.ServiceEndDate != nil {
		end := b.ServiceEndDate.Format(domain.DateFormat)
		v.ServiceEndDate = &end
	}

	// Минуты поиска показываются только пока идет поиск
	if b.IsSearching() {
		v.SearchElapsedMinutes = b.SearchElapsedMinutes
	}

	return v
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(userID string, tab domain.Tab, bookings []domain.UnifiedBooking, now time.Time) *BookingListResponse {
	resp := &BookingListResponse{
		UserID:   userID,
		Tab:      string(tab),
		Bookings: make([]BookingView, len(bookings)),
	}

	for i := range bookings {
		resp.Bookings[i] = FromDomainBooking(bookings[i], now)
	}

	return resp
}
