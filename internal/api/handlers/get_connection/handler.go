package get_connection

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingSync/internal/api/handlers"
)

const (
	msgUnknownSession = "бронирования пользователя не синхронизируются"
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

// Handle GET /api/v1/users/{userId}/connection
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	state := h.service.Connection()
	if userID == "" || userID != state.UserID {
		h.logger.Warn("GET /users/{userId}/connection - No sync session for user_id=%s", userID)
		handlers.RespondNotFound(w, msgUnknownSession)
		return
	}

	h.logger.Info("GET /users/{userId}/connection - user_id=%s, connected=%t", userID, state.Connected)
	handlers.RespondJSON(w, http.StatusOK, state)
}
