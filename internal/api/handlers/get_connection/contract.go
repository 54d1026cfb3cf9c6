package get_connection

import "github.com/m04kA/SMC-BookingSync/internal/service/bookings/models"

type BookingService interface {
	Connection() models.ConnectionResponse
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
