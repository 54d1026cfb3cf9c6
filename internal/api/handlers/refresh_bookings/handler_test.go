package refresh_bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	user  string
	count int
	err   error
	calls int
}

func (s *fakeService) SessionUser() string { return s.user }

func (s *fakeService) Fetch(_ context.Context, _ string) (int, error) {
	s.calls++
	return s.count, s.err
}

func serve(h *Handler, userID string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/users/{userId}/bookings/refresh", h.Handle).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/"+userID+"/bookings/refresh", nil))
	return rec
}

func TestHandle_Success(t *testing.T) {
	svc := &fakeService{user: "u1", count: 3}
	rec := serve(NewHandler(svc, nopLogger{}), "u1")

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.RefreshResponse{UserID: "u1", Count: 3}, body)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "fetch failed", err: fmt.Errorf("%w: Fetch - user=u1: timeout", bookings.ErrFetchFailed), wantCode: http.StatusBadGateway},
		{name: "fetch superseded", err: fmt.Errorf("%w: Fetch - user=u1", bookings.ErrFetchCancelled), wantCode: http.StatusConflict},
		{name: "service closed", err: bookings.ErrClosed, wantCode: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(NewHandler(&fakeService{user: "u1", err: tt.err}, nopLogger{}), "u1")
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandle_ForeignUserDoesNotFetch(t *testing.T) {
	svc := &fakeService{user: "u1"}
	rec := serve(NewHandler(svc, nopLogger{}), "u2")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, svc.calls)
}
