package realtime

import "errors"

var (
	// ErrTransport ошибка соединения или отправки; сообщается через отдельный обработчик ошибок
	ErrTransport = errors.New("realtime: transport error")

	// ErrConnClosed возвращается соединением после Close
	ErrConnClosed = errors.New("realtime: connection closed")

	// ErrMalformedEvent payload не прошел разбор или проверку обязательных полей
	ErrMalformedEvent = errors.New("realtime: malformed event")

	// ErrUnroutableEvent неизвестное имя события или комната другого пользователя
	ErrUnroutableEvent = errors.New("realtime: unroutable event")

	// ErrForeignOwner событие принадлежит другому пользователю
	ErrForeignOwner = errors.New("realtime: event owner does not match session")

	// ErrDisposed адаптер уже освобожден
	ErrDisposed = errors.New("realtime: channel disposed")

	// ErrInvalidUserID пустой идентификатор пользователя
	ErrInvalidUserID = errors.New("realtime: invalid user id")
)
