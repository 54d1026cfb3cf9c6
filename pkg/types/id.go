package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID идентификатор из JSON, который бэкенд присылает то строкой, то числом
type ID string

// UnmarshalJSON принимает строку или целое число
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("id must be an integer: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String возвращает строковое представление
func (id ID) String() string {
	return string(id)
}

// First возвращает первый непустой идентификатор
func First(ids ...ID) ID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}
