package get_user_bookings

import (
	"github.com/m04kA/SMC-BookingSync/internal/domain"
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings/models"
)

type BookingService interface {
	SessionUser() string
	GetView(tab domain.Tab) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
