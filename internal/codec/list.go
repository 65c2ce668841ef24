package codec

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EncodeList serializes items as a JSON array. A nil slice encodes as "[]".
func EncodeList[T any](items []T) (string, error) {
	if items == nil {
		return "[]", nil
	}
	return Encode(items)
}

// Encode serializes an arbitrary record value as JSON text.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec encode: %w", err)
	}
	return string(b), nil
}

// DecodeList parses a JSON array. It returns an empty, non-nil slice when
// text is empty, is not valid JSON, or is not an array of T.
func DecodeList[T any](text string) []T {
	if text == "" {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal([]byte(text), &items); err != nil || items == nil {
		return []T{}
	}
	return items
}

// DecodeNullableList is DecodeList for a column that may be NULL.
func DecodeNullableList[T any](text *string) []T {
	if text == nil {
		return []T{}
	}
	return DecodeList[T](*text)
}

// JSONList is a typed collection column: a []T stored as JSON text.
type JSONList[T any] []T

// Value implements driver.Valuer.
func (l JSONList[T]) Value() (driver.Value, error) {
	return EncodeList([]T(l))
}

// Scan implements sql.Scanner. NULL and malformed text scan as an empty list.
func (l *JSONList[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = []T{}
	case string:
		*l = DecodeList[T](v)
	case []byte:
		*l = DecodeList[T](string(v))
	default:
		return fmt.Errorf("codec: cannot scan %T into JSONList", src)
	}
	return nil
}

var (
	_ driver.Valuer = JSONList[string]{}
	_ sql.Scanner   = (*JSONList[string])(nil)
)
