package bookings

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidTab возвращается для неизвестной вкладки
	ErrInvalidTab = errors.New("invalid tab")

	// ErrFetchFailed полная загрузка не удалась, хранилище не изменено
	ErrFetchFailed = errors.New("service: fetch failed")

	// ErrFetchCancelled результат загрузки не применен: запрос отменен или вытеснен более новым
	ErrFetchCancelled = errors.New("service: fetch cancelled")

	// ErrConnectFailed не удалось подключиться к push-каналу
	ErrConnectFailed = errors.New("service: connect failed")

	// ErrClosed сервис уже закрыт
	ErrClosed = errors.New("service: closed")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
