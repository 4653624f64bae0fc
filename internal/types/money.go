// README: Common money value object used to render simulated fares.
package types

import (
	"fmt"
	"math"
)

const CurrencyINR = "INR"

var currencySymbols = map[string]string{
	CurrencyINR: "₹",
}

type Money struct {
	Amount   float64
	Currency string
}

func INR(amount float64) Money {
	return Money{Amount: amount, Currency: CurrencyINR}
}

// String rounds to whole units; simulated fares carry no meaningful fraction.
func (m Money) String() string {
	symbol, ok := currencySymbols[m.Currency]
	if !ok {
		return fmt.Sprintf("%.0f %s", math.Round(m.Amount), m.Currency)
	}
	return fmt.Sprintf("%s%.0f", symbol, math.Round(m.Amount))
}
