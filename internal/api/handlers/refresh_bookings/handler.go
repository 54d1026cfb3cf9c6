package refresh_bookings

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingSync/internal/api/handlers"
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings"
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings/models"
)

const (
	msgUnknownSession = "бронирования пользователя не синхронизируются"
	msgFetchFailed    = "не удалось загрузить бронирования"
	msgFetchCancelled = "загрузка отменена более новым запросом"
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

// Handle POST /api/v1/users/{userId}/bookings/refresh
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if userID == "" || userID != h.service.SessionUser() {
		h.logger.Warn("POST /users/{userId}/bookings/refresh - No sync session for user_id=%s", userID)
		handlers.RespondNotFound(w, msgUnknownSession)
		return
	}

	count, err := h.service.Fetch(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrFetchFailed):
			h.logger.Error("POST /users/{userId}/bookings/refresh - Fetch failed: user_id=%s, error=%v", userID, err)
			handlers.RespondBadGateway(w, msgFetchFailed)

		case errors.Is(err, bookings.ErrFetchCancelled):
			h.logger.Warn("POST /users/{userId}/bookings/refresh - Fetch superseded: user_id=%s", userID)
			handlers.RespondConflict(w, msgFetchCancelled)

		case errors.Is(err, bookings.ErrClosed):
			h.logger.Warn("POST /users/{userId}/bookings/refresh - Service is shutting down")
			handlers.RespondServiceUnavailable(w)

		default:
			h.logger.Error("POST /users/{userId}/bookings/refresh - Unexpected error: user_id=%s, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /users/{userId}/bookings/refresh - Bookings refreshed: user_id=%s, count=%d", userID, count)
	handlers.RespondJSON(w, http.StatusOK, models.RefreshResponse{UserID: userID, Count: count})
}
