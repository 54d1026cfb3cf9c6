package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-BookingSync/pkg/ptr"
)

func TestParseDisplayStatus(t *testing.T) {
	s, ok := ParseDisplayStatus(" Matched ")
	assert.True(t, ok)
	assert.Equal(t, StatusMatched, s)

	_, ok = ParseDisplayStatus("accepted")
	assert.False(t, ok)
}

func TestDisplayStatus_PartitionIsExhaustive(t *testing.T) {
	for _, s := range AllDisplayStatuses {
		assert.NotEqual(t, s.IsActive(), s.IsSettled(), "status %s must be exactly one of active/settled", s)
	}
}

func TestElapsedMinutes(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, ElapsedMinutes(now.Add(-125*time.Second), now))
	assert.Equal(t, 0, ElapsedMinutes(now.Add(59*time.Second), now))
	assert.Equal(t, 0, ElapsedMinutes(time.Time{}, now))
}

func TestUnifiedBooking_EffectiveDate(t *testing.T) {
	created := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	start := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)

	b := UnifiedBooking{CreatedAt: created}
	assert.Equal(t, created, b.EffectiveDate())

	b.ServiceStartDate = &start
	assert.Equal(t, start, b.EffectiveDate())
}

func TestUnifiedBooking_CloneDoesNotSharePointers(t *testing.T) {
	b := UnifiedBooking{
		ID:           "sr-1",
		ProviderName: ptr.Ptr("Kim"),
		Budget:       &Budget{Min: 10, Max: 20},
	}

	cp := b.Clone()
	*cp.ProviderName = "Lee"
	cp.Budget.Max = 99

	assert.Equal(t, "Kim", *b.ProviderName)
	assert.Equal(t, 20.0, b.Budget.Max)
}

func TestBookingUpdate_CanCreate(t *testing.T) {
	typ := TypeServiceRequest

	assert.True(t, (&BookingUpdate{ID: "x", Type: &typ, Title: ptr.Ptr("Cleaning")}).CanCreate())
	assert.False(t, (&BookingUpdate{ID: "x", ProviderName: ptr.Ptr("A")}).CanCreate())
	assert.False(t, (&BookingUpdate{ID: "x", Type: &typ, Title: ptr.Ptr("")}).CanCreate())

	bad := BookingType("rental")
	assert.False(t, (&BookingUpdate{ID: "x", Type: &bad, Title: ptr.Ptr("Car")}).CanCreate())
}
