package services

import (
	"testing"
	"time"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

func TestQuoteCancellation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start      time.Time
		price      float64
		wantFee    float64
		wantRefund float64
		wantType   string
	}{
		{
			name:       "one hour notice charges half",
			start:      now.Add(time.Hour),
			price:      1000,
			wantFee:    500,
			wantRefund: 500,
			wantType:   models.CancellationLate,
		},
		{
			name:       "twelve hours notice charges a quarter",
			start:      now.Add(12 * time.Hour),
			price:      1000,
			wantFee:    250,
			wantRefund: 750,
			wantType:   models.CancellationStandard,
		},
		{
			name:       "three days notice is free",
			start:      now.Add(72 * time.Hour),
			price:      1000,
			wantFee:    0,
			wantRefund: 1000,
			wantType:   models.CancellationEarly,
		},
		{
			name:       "exactly two hours falls in the standard tier",
			start:      now.Add(2 * time.Hour),
			price:      800,
			wantFee:    200,
			wantRefund: 600,
			wantType:   models.CancellationStandard,
		},
		{
			name:       "exactly twenty four hours is free",
			start:      now.Add(24 * time.Hour),
			price:      800,
			wantFee:    0,
			wantRefund: 800,
			wantType:   models.CancellationEarly,
		},
		{
			name:       "session already started counts as late",
			start:      now.Add(-time.Hour),
			price:      600,
			wantFee:    300,
			wantRefund: 300,
			wantType:   models.CancellationLate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := QuoteCancellation(tt.price, tt.start, now)
			if quote.Fee != tt.wantFee {
				t.Errorf("Fee = %v, want %v", quote.Fee, tt.wantFee)
			}
			if quote.Refund != tt.wantRefund {
				t.Errorf("Refund = %v, want %v", quote.Refund, tt.wantRefund)
			}
			if quote.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", quote.Type, tt.wantType)
			}
			if quote.Fee+quote.Refund != tt.price {
				t.Errorf("Fee + Refund = %v, want price %v", quote.Fee+quote.Refund, tt.price)
			}
		})
	}
}
