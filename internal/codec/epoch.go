package codec

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EncodeEpoch converts t to seconds since the Unix epoch, keeping the
// fractional part.
func EncodeEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// DecodeEpoch converts seconds since the Unix epoch back to a UTC time.
// Precision is kept to the microsecond for present-day values.
func DecodeEpoch(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	nsec := math.Round(frac*1e6) * 1e3
	return time.Unix(int64(whole), int64(nsec)).UTC()
}

// Epoch is a point in time stored as DOUBLE epoch seconds. The zero time
// maps to NULL and back.
type Epoch struct {
	time.Time
}

// Value implements driver.Valuer.
func (e Epoch) Value() (driver.Value, error) {
	if e.IsZero() {
		return nil, nil
	}
	return EncodeEpoch(e.Time), nil
}

// Scan implements sql.Scanner.
func (e *Epoch) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		e.Time = time.Time{}
	case float64:
		e.Time = DecodeEpoch(v)
	case int64:
		e.Time = time.Unix(v, 0).UTC()
	case []byte:
		return e.scanText(string(v))
	case string:
		return e.scanText(v)
	default:
		return fmt.Errorf("codec: cannot scan %T into Epoch", src)
	}
	return nil
}

func (e *Epoch) scanText(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("codec: cannot scan %q into Epoch: %w", s, err)
	}
	e.Time = DecodeEpoch(f)
	return nil
}
