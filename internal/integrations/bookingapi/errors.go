package bookingapi

import "errors"

var (
	// ErrInternal возвращается при ошибках сети или построения запроса
	ErrInternal = errors.New("bookingapi client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("bookingapi client: invalid response")

	// ErrUnauthorized возвращается, когда сессия не имеет доступа к списку
	ErrUnauthorized = errors.New("bookingapi client: unauthorized")

	// ErrInvalidRequest возвращается при некорректных аргументах вызова
	ErrInvalidRequest = errors.New("bookingapi client: invalid request")

	// ErrInvalidRecord возвращается для записи, которую нельзя привести к UnifiedBooking
	ErrInvalidRecord = errors.New("bookingapi client: invalid record")
)
