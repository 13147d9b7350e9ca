package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/healthhub/portal/internal/platform/apperr"
)

// Cents is a currency amount in hundredths. Sums never go through floats.
type Cents int64

// CentsFromFloat rounds f to the nearest cent.
func CentsFromFloat(f float64) Cents {
	return Cents(math.Round(f * 100))
}

// ParseCents accepts "250", "250.5" and "250.00".
func ParseCents(s string) (Cents, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.Validation("invalid amount %q", s)
	}
	return CentsFromFloat(f), nil
}

func (c Cents) Float() float64 { return float64(c) / 100 }

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes a plain decimal number with two places.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := ParseCents(string(data))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
