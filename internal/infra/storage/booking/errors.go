package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.store: booking not found")

	// ErrMergeRejected возвращается, когда обновление для нового id не содержит id, type и title
	ErrMergeRejected = errors.New("booking.store: merge rejected")

	// ErrStaleUpdate возвращается при включенной проверке updatedAt, если обновление старше записи
	ErrStaleUpdate = errors.New("booking.store: stale update")

	// ErrInvalidUpdate возвращается для обновления без id
	ErrInvalidUpdate = errors.New("booking.store: invalid update")
)
