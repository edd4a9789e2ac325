package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// numberNoise is stripped from quoted numbers such as "$1,234.50" or "2.5%"
var numberNoise = strings.NewReplacer("$", "", "%", "", ",", "", " ", "")

// Number is a float64 that also accepts numeric strings when decoding.
// Models occasionally quote prices or append a percent sign.
// Non-finite values are rejected so a decoded Number always re-encodes.
type Number float64

// Float64 returns the plain value
func (n Number) Float64() float64 {
	return float64(n)
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// decimal only takes plain digits and exponents, so "NaN" and "Infinity" fail here
		d, err := decimal.NewFromString(numberNoise.Replace(s))
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		f, _ := d.Float64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("number %q out of range", s)
		}
		*n = Number(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
