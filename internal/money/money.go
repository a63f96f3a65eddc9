package money

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// MinorUnits is the fixed-point scale shared by every supported currency.
const MinorUnits = 2

var supportedCurrencies = map[string]struct{}{
	"INR": {},
	"USD": {},
	"ETH": {},
	"BTC": {},
}

func IsSupportedCurrency(currency string) bool {
	_, ok := supportedCurrencies[currency]
	return ok
}

// ParseMinor converts a decimal amount string into minor units. Amounts with
// more than MinorUnits fractional digits are rejected rather than rounded, so
// callers can never silently lose precision.
func ParseMinor(input string) (int64, error) {
	parsed, err := decimal.NewFromString(input)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := parsed.Shift(MinorUnits)
	if !minor.IsInteger() {
		return 0, ErrTooManyDecimals
	}
	if !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	whole := value / 100
	frac := value % 100
	formatted := fmt.Sprintf("%d.%02d", whole, frac)
	if negative {
		return "-" + formatted
	}
	return formatted
}

func ValueToInt64(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case uint32:
		return int64(v)
	case []byte:
		parsed, _ := strconv.ParseInt(string(v), 10, 64)
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(v, 10, 64)
		return parsed
	default:
		parsed, _ := strconv.ParseInt(fmt.Sprint(v), 10, 64)
		return parsed
	}
}
