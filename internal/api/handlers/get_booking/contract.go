package get_booking

import (
	"github.com/m04kA/SMC-BookingSync/internal/service/bookings/models"
)

type BookingService interface {
	SessionUser() string
	GetByID(id string) (*models.BookingView, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
