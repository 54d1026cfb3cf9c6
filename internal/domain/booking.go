package domain

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-BookingSync/pkg/ptr"
)

// BookingType represents the backend resource a booking originates from
type BookingType string

const (
	TypeOrder          BookingType = "order"
	TypeServiceRequest BookingType = "service_request"
)

// IsValid returns true if the type is one of the known resource kinds
func (t BookingType) IsValid() bool {
	return t == TypeOrder || t == TypeServiceRequest
}

// DisplayStatus represents the compact status shown to the user
type DisplayStatus string

const (
	StatusPending    DisplayStatus = "pending"
	StatusSearching  DisplayStatus = "searching"
	StatusMatched    DisplayStatus = "matched"
	StatusInProgress DisplayStatus = "in_progress"
	StatusCompleted  DisplayStatus = "completed"
	StatusCancelled  DisplayStatus = "cancelled"
	StatusNoAccept   DisplayStatus = "no_accept"
)

// ParseDisplayStatus converts a raw string into a member of the closed enum
func ParseDisplayStatus(raw string) (DisplayStatus, bool) {
	s := DisplayStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllDisplayStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// IsValid returns true if the status is a member of the closed enum
func (s DisplayStatus) IsValid() bool {
	for _, known := range AllDisplayStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsActive returns true if the status belongs to the upcoming tab
func (s DisplayStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// IsSettled returns true if the status is terminal
func (s DisplayStatus) IsSettled() bool {
	for _, settled := range SettledStatuses {
		if s == settled {
			return true
		}
	}
	return false
}

// Budget диапазон бюджета заявки на услугу (до подбора исполнителя)
type Budget struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UnifiedBooking represents an order or a service request in one display shape
type UnifiedBooking struct {
	ID             string        `json:"id"`
	Type           BookingType   `json:"type"`
	DisplayStatus  DisplayStatus `json:"displayStatus"`
	OriginalStatus string        `json:"originalStatus"`
	Title          string        `json:"title"`

	Subtitle      *string  `json:"subtitle,omitempty"`
	Category      *string  `json:"category,omitempty"`
	ProviderName  *string  `json:"providerName,omitempty"`
	ProviderPhone *string  `json:"providerPhone,omitempty"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	Location      *string  `json:"location,omitempty"`

	ServiceStartDate *time.Time `json:"serviceStartDate,omitempty"`
	ServiceEndDate   *time.Time `json:"serviceEndDate,omitempty"`

	// Поля заявки на услугу
	Budget                *Budget `json:"budget,omitempty"`
	SearchElapsedMinutes  *int    `json:"searchElapsedMinutes,omitempty"` // Имеет смысл только при статусе searching
	MatchedProvidersCount int     `json:"matchedProvidersCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectiveDate returns the service start date, falling back to the creation time
func (b *UnifiedBooking) EffectiveDate() time.Time {
	if b.ServiceStartDate != nil && !b.ServiceStartDate.IsZero() {
		return *b.ServiceStartDate
	}
	return b.CreatedAt
}

// IsSearching returns true while providers are still being looked up
func (b *UnifiedBooking) IsSearching() bool {
	return b.Type == TypeServiceRequest && b.DisplayStatus == StatusSearching
}

// Clone returns a deep copy, so callers never share pointers with the store
func (b UnifiedBooking) Clone() UnifiedBooking {
	out := b
	out.Subtitle = ptr.Clone(b.Subtitle)
	out.Category = ptr.Clone(b.Category)
	out.ProviderName = ptr.Clone(b.ProviderName)
	out.ProviderPhone = ptr.Clone(b.ProviderPhone)
	out.Location = ptr.Clone(b.Location)
	out.TotalAmount = ptr.Clone(b.TotalAmount)
	out.ServiceStartDate = ptr.Clone(b.ServiceStartDate)
	out.ServiceEndDate = ptr.Clone(b.ServiceEndDate)
	out.Budget = ptr.Clone(b.Budget)
	out.SearchElapsedMinutes = ptr.Clone(b.SearchElapsedMinutes)
	return out
}

// BookingUpdate partial update of a booking
// nil поле означает "не передано" - при слиянии остается прежнее значение
type BookingUpdate struct {
	ID string

	Type           *BookingType
	DisplayStatus  *DisplayStatus
	OriginalStatus *string
	Title          *string

	Subtitle      *string
	Category      *string
	ProviderName  *string
	ProviderPhone *string
	TotalAmount   *float64
	Location      *string

	ServiceStartDate *time.Time
	ServiceEndDate   *time.Time

	Budget                *Budget
	SearchElapsedMinutes  *int
	MatchedProvidersCount *int

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// CanCreate returns true if the update carries the minimum to insert a new record
func (u *BookingUpdate) CanCreate() bool {
	return u.ID != "" &&
		u.Type != nil && u.Type.IsValid() &&
		u.Title != nil && *u.Title != ""
}

// SetsSearching returns true if the update moves the booking into searching
func (u *BookingUpdate) SetsSearching() bool {
	return u.DisplayStatus != nil && *u.DisplayStatus == StatusSearching
}

// ElapsedMinutes считает полные минуты между createdAt и now
// Отрицательная разница (рассинхрон часов) дает 0
func ElapsedMinutes(createdAt, now time.Time) int {
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt) / time.Minute)
}
