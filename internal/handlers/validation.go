package handlers

import (
	"errors"

	"wallet/internal/money"
)

var errNonPositiveAmount = errors.New("amount must be positive")

// parseAmountMinor parses a user-supplied amount string into minor units and
// rejects zero and negative values before the transfer service ever sees them.
func parseAmountMinor(input string) (int64, error) {
	minor, err := money.ParseMinor(input)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, errNonPositiveAmount
	}
	return minor, nil
}
