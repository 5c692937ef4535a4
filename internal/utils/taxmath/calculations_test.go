package taxmath_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasapahq/vendorpay/internal/utils/taxmath"
)

func standardInput() taxmath.TaxInput {
	return taxmath.TaxInput{
		PreTax:       decimal.NewFromInt(100),
		WhtRate:      decimal.NewFromFloat(0.05),
		LevyRate:     decimal.NewFromFloat(0.01),
		VATRate:      decimal.NewFromFloat(0.15),
		MomoRate:     decimal.NewFromFloat(0.01),
		VATApplies:   true,
		PaymentMode:  "BANK_TRANSFER",
		CurrencyCode: "GHS",
		FXRate:       decimal.NewFromFloat(13.5),
	}
}

func TestComputeBreakdown_StandardVendorPayment(t *testing.T) {
	out := taxmath.ComputeBreakdown(standardInput())

	assert.True(t, out.WHT.Equal(decimal.NewFromInt(5)), "wht = %s", out.WHT)
	assert.True(t, out.Levy.Equal(decimal.NewFromInt(1)), "levy = %s", out.Levy)
	// VAT applies to pre-tax plus levy, not pre-tax alone.
	assert.True(t, out.VAT.Equal(decimal.NewFromFloat(15.15)), "vat = %s", out.VAT)
	assert.True(t, out.MomoCharge.IsZero(), "momo = %s", out.MomoCharge)
	assert.True(t, out.NetOfWht.Equal(decimal.NewFromInt(95)), "netOfWht = %s", out.NetOfWht)
	assert.True(t, out.NetPayable.Equal(decimal.NewFromFloat(111.15)), "net = %s", out.NetPayable)
	assert.True(t, out.Percentage.Equal(decimal.NewFromInt(100)))
	assert.False(t, out.IsPartial)
}

func TestComputeBreakdown_FXBudgetImpact(t *testing.T) {
	out := taxmath.ComputeBreakdown(standardInput())

	// 111.15 GHS at 13.5 GHS/USD.
	want := decimal.NewFromFloat(111.15).Div(decimal.NewFromFloat(13.5))
	assert.True(t, out.BudgetImpactUSD.Equal(want), "impact = %s", out.BudgetImpactUSD)
	assert.True(t, out.BudgetImpactUSD.Round(2).Equal(decimal.NewFromFloat(8.23)))
}

func TestComputeBreakdown_VATExempt(t *testing.T) {
	in := standardInput()
	in.VATApplies = false

	out := taxmath.ComputeBreakdown(in)

	assert.True(t, out.VAT.IsZero())
	assert.True(t, out.NetPayable.Equal(decimal.NewFromInt(96)), "net = %s", out.NetPayable)
}

func TestComputeBreakdown_MomoChargeOnlyForMomo(t *testing.T) {
	in := standardInput()
	in.PaymentMode = taxmath.PaymentModeMomo

	out := taxmath.ComputeBreakdown(in)

	assert.True(t, out.MomoCharge.Equal(decimal.NewFromInt(1)), "momo = %s", out.MomoCharge)
	assert.True(t, out.NetPayable.Equal(decimal.NewFromFloat(112.15)), "net = %s", out.NetPayable)
}

func TestComputeBreakdown_ZeroWhtRate(t *testing.T) {
	in := standardInput()
	in.WhtRate = decimal.Zero

	out := taxmath.ComputeBreakdown(in)

	assert.True(t, out.WHT.IsZero())
	assert.True(t, out.NetPayable.Equal(decimal.NewFromFloat(116.15)), "net = %s", out.NetPayable)
}

func TestComputePartialBreakdown_HalfRun(t *testing.T) {
	out := taxmath.ComputePartialBreakdown(standardInput(), decimal.NewFromInt(50))

	require.True(t, out.IsPartial)
	assert.True(t, out.PreTax.Equal(decimal.NewFromInt(50)), "preTax = %s", out.PreTax)
	assert.True(t, out.WHT.Equal(decimal.NewFromFloat(2.5)), "wht = %s", out.WHT)
	assert.True(t, out.Levy.Equal(decimal.NewFromFloat(0.5)), "levy = %s", out.Levy)
	assert.True(t, out.VAT.Equal(decimal.NewFromFloat(7.575)), "vat = %s", out.VAT)
	assert.True(t, out.NetPayable.Equal(decimal.NewFromFloat(55.575)), "net = %s", out.NetPayable)
	assert.True(t, out.Percentage.Equal(decimal.NewFromInt(50)))
}

func TestComputePartialBreakdown_FullRunIsNotPartial(t *testing.T) {
	out := taxmath.ComputePartialBreakdown(standardInput(), decimal.NewFromInt(100))

	assert.False(t, out.IsPartial)
	assert.True(t, out.NetPayable.Equal(decimal.NewFromFloat(111.15)))
}

func TestPaymentPercentage(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		total  decimal.Decimal
		want   decimal.Decimal
	}{
		{"half", decimal.NewFromInt(50), decimal.NewFromInt(100), decimal.NewFromInt(50)},
		{"full", decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.NewFromInt(100)},
		{"clamps above hundred", decimal.NewFromInt(150), decimal.NewFromInt(100), decimal.NewFromInt(100)},
		{"clamps below zero", decimal.NewFromInt(-10), decimal.NewFromInt(100), decimal.Zero},
		{"zero total defaults to full", decimal.NewFromInt(42), decimal.Zero, decimal.NewFromInt(100)},
		{"negative total defaults to full", decimal.NewFromInt(42), decimal.NewFromInt(-5), decimal.NewFromInt(100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taxmath.PaymentPercentage(tt.amount, tt.total)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestIsPartial_ThresholdAt99Point9(t *testing.T) {
	assert.True(t, taxmath.IsPartial(decimal.NewFromFloat(99.89)))
	assert.False(t, taxmath.IsPartial(decimal.NewFromFloat(99.9)))
	assert.False(t, taxmath.IsPartial(decimal.NewFromInt(100)))
}

func TestBudgetImpactUSD(t *testing.T) {
	net := decimal.NewFromFloat(111.15)

	t.Run("usd passes through", func(t *testing.T) {
		got := taxmath.BudgetImpactUSD(net, "USD", decimal.NewFromFloat(13.5))
		assert.True(t, got.Equal(net))
	})
	t.Run("local currency divides by fx", func(t *testing.T) {
		got := taxmath.BudgetImpactUSD(net, "GHS", decimal.NewFromFloat(13.5))
		assert.True(t, got.Equal(net.Div(decimal.NewFromFloat(13.5))))
	})
	t.Run("missing fx falls back to one to one", func(t *testing.T) {
		got := taxmath.BudgetImpactUSD(net, "GHS", decimal.Zero)
		assert.True(t, got.Equal(net))
	})
}
