package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculator(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"serper 1000 credits", calc.Serper(1000), 0.30},
		{"serper 250 credits", calc.Serper(250), 0.075},
		{"icypeas 10 profiles", calc.Icypeas(10), 0.025},
		{"icypeas credits", calc.IcypeasCredits(10), 15},
		{"match 2M tokens", calc.Match(2_000_000), 0.80},
		{"findymail 4 credits", calc.Findymail(4), 0.023985},
		{"zero", calc.Serper(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got, 1e-9)
		})
	}
}

func TestCalculator_ZeroRates(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{})
	assert.Zero(t, calc.Serper(1000))
	assert.Zero(t, calc.Match(1000))
}
