package codec

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// EncodeBool maps true to 1 and false to 0.
func EncodeBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// DecodeBool maps any nonzero value to true.
func DecodeBool(v int64) bool {
	return v != 0
}

// IntBool is a boolean stored in an INTEGER column.
type IntBool bool

// Value implements driver.Valuer.
func (b IntBool) Value() (driver.Value, error) {
	return EncodeBool(bool(b)), nil
}

// Scan implements sql.Scanner. NULL scans as false.
func (b *IntBool) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = false
	case int64:
		*b = IntBool(DecodeBool(v))
	case bool:
		*b = IntBool(v)
	case float64:
		*b = v != 0
	case []byte:
		return b.scanText(string(v))
	case string:
		return b.scanText(v)
	default:
		return fmt.Errorf("codec: cannot scan %T into IntBool", src)
	}
	return nil
}

func (b *IntBool) scanText(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("codec: cannot scan %q into IntBool: %w", s, err)
	}
	*b = IntBool(DecodeBool(n))
	return nil
}
