package get_user_bookings

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BookingSync/internal/api/handlers"
	"github.com/m04kA/SMC-BookingSync/internal/domain"
)

const (
	msgInvalidTab     = "некорректная вкладка, допустимы upcoming и past"
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

// Handle GET /api/v1/users/{userId}/bookings?tab=upcoming|past
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if userID == "" || userID != h.service.SessionUser() {
		h.logger.Warn("GET /users/{userId}/bookings - No sync session for user_id=%s", userID)
		handlers.RespondNotFound(w, msgUnknownSession)
		return
	}

	// По умолчанию открывается вкладка предстоящих
	rawTab := r.URL.Query().Get("tab")
	if rawTab == "" {
		rawTab = string(domain.TabUpcoming)
	}
	tab, ok := domain.ParseTab(rawTab)
	if !ok {
		h.logger.Warn("GET /users/{userId}/bookings - Invalid tab: %q", rawTab)
		handlers.RespondBadRequest(w, msgInvalidTab)
		return
	}

	result, err := h.service.GetView(tab)
	if err != nil {
		h.logger.Error("GET /users/{userId}/bookings - Failed to build view: user_id=%s, tab=%s, error=%v",
			userID, tab, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/{userId}/bookings - View built: user_id=%s, tab=%s, count=%d",
		userID, tab, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
