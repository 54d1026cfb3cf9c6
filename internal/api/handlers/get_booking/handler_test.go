package get_booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingSync/internal/service/bookings"
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeService struct {
	bookings map[string]models.BookingView
	err      error
}

func (s *fakeService) SessionUser() string { return "u1" }

func (s *fakeService) GetByID(id string) (*models.BookingView, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	return &b, nil
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/users/{userId}/bookings/{bookingId}", h.Handle).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle(t *testing.T) {
	h := NewHandler(&fakeService{bookings: map[string]models.BookingView{
		"o-1": {ID: "o-1", Title: "Camper van", DisplayStatus: "matched"},
	}}, nopLogger{})

	rec := serve(h, "/api/v1/users/u1/bookings/o-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.BookingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Camper van", body.Title)

	assert.Equal(t, http.StatusNotFound, serve(h, "/api/v1/users/u1/bookings/o-2").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, "/api/v1/users/u2/bookings/o-1").Code)
}

func TestHandle_InternalError(t *testing.T) {
	h := NewHandler(&fakeService{err: errors.New("boom")}, nopLogger{})

	rec := serve(h, "/api/v1/users/u1/bookings/o-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
