package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Carrier string

const (
	CarrierStandard  Carrier = "standard"
	CarrierExpedited Carrier = "expedited"
	CarrierOvernight Carrier = "overnight"
)

var perLine = decimal.RequireFromString("0.5")

type carrierInfo struct {
	base decimal.Decimal
	days int
}

var carriers = map[Carrier]carrierInfo{
	CarrierStandard:  {base: decimal.RequireFromString("5.99"), days: 5},
	CarrierExpedited: {base: decimal.RequireFromString("12.99"), days: 2},
	CarrierOvernight: {base: decimal.RequireFromString("24.99"), days: 1},
}

// Carriers in quote order.
var Carriers = []Carrier{CarrierStandard, CarrierExpedited, CarrierOvernight}

type Rate struct {
	Carrier       Carrier         `json:"carrier"`
	Amount        decimal.Decimal `json:"rate"`
	EstimatedDays int             `json:"estimated_days"`
	Service       string          `json:"service"`
}

func ParseCarrier(s string) (Carrier, error) {
	c := Carrier(s)
	if _, ok := carriers[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCarrier, s)
	}
	return c, nil
}

// RateFor charges the carrier base plus 0.50 per distinct line.
func RateFor(c Carrier, lineCount int) (Rate, error) {
	info, ok := carriers[c]
	if !ok {
		return Rate{}, fmt.Errorf("%w: %q", ErrUnknownCarrier, c)
	}
	if lineCount < 0 {
		lineCount = 0
	}
	return Rate{
		Carrier:       c,
		Amount:        info.base.Add(perLine.Mul(decimal.NewFromInt(int64(lineCount)))),
		EstimatedDays: info.days,
		Service:       string(c) + "_shipping",
	}, nil
}

func Rates(lineCount int) []Rate {
	out := make([]Rate, 0, len(Carriers))
	for _, c := range Carriers {
		r, _ := RateFor(c, lineCount)
		out = append(out, r)
	}
	return out
}

// DeliveryDays is the promised transit time. No carrier means standard.
func DeliveryDays(c Carrier) int {
	if info, ok := carriers[c]; ok {
		return info.days
	}
	return carriers[CarrierStandard].days
}
