package get_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingSync/internal/api/handlers"
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgUnknownSession   = "бронирования пользователя не синхронизируются"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/users/{userId}/bookings/{bookingId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["userId"]
	bookingID := vars["bookingId"]

	if userID == "" || userID != h.service.SessionUser() {
		h.logger.Warn("GET /users/{userId}/bookings/{id} - No sync session for user_id=%s", userID)
		handlers.RespondNotFound(w, msgUnknownSession)
		return
	}
	if bookingID == "" {
		h.logger.Warn("GET /users/{userId}/bookings/{id} - Empty booking ID")
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	booking, err := h.service.GetByID(bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /users/{userId}/bookings/{id} - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /users/{userId}/bookings/{id} - Failed to get booking: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /users/{userId}/bookings/{id} - Booking retrieved successfully: booking_id=%s, user_id=%s",
		bookingID, userID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
