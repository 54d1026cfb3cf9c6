package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat формат даты без времени
const DateFormat = "2006-01-02"

// Time время из JSON бэкенда: принимает RFC 3339 и дату без времени (YYYY-MM-DD)
// null и пустая строка дают нулевое значение
type Time struct {
	time.Time
}

// UnmarshalJSON разбирает время в одном из поддерживаемых форматов
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := ParseTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Ptr возвращает указатель на время или nil для пустого значения
func (t *Time) Ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// ParseTime разбирает RFC 3339 (с долями секунды) или дату YYYY-MM-DD
func ParseTime(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(DateFormat, raw); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", raw)
}
