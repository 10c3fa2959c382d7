package services

import (
	"time"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

type CancellationQuote struct {
	Fee    float64
	Refund float64
	Type   string
}

// QuoteCancellation maps the time remaining before a session into a fee/refund
// split. Under 2 hours the fee is half the price, under 24 a quarter, and from
// 24 hours out cancellation is free. Fee plus refund always equals price.
func QuoteCancellation(price float64, startTime, now time.Time) CancellationQuote {
	hoursUntilStart := startTime.Sub(now).Hours()

	var quote CancellationQuote
	switch {
	case hoursUntilStart < 2:
		quote.Fee = price * 0.5
		quote.Type = models.CancellationLate
	case hoursUntilStart < 24:
		quote.Fee = price * 0.25
		quote.Type = models.CancellationStandard
	default:
		quote.Fee = 0
		quote.Type = models.CancellationEarly
	}
	quote.Refund = price - quote.Fee
	return quote
}
