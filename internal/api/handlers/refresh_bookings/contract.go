package refresh_bookings

import "context"

type BookingService interface {
	SessionUser() string
	Fetch(ctx context.Context, userID string) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
