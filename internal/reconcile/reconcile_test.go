package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeExpected(t *testing.T) {
	tests := []struct {
		name    string
		opening decimal.Decimal
		sales   Totals
		mov     MovementSums
		want    Expected
	}{
		{
			name:    "opening float only, no sales",
			opening: d("100"),
			want: Expected{
				Cash:  d("100"),
				Total: d("100"),
			},
		},
		{
			name:    "cash and pix sales with a withdrawal",
			opening: d("100.00"),
			sales:   Totals{Cash: d("50.00"), Pix: d("30.00")},
			mov:     MovementSums{Withdrawals: d("20.00")},
			want: Expected{
				Cash:  d("130.00"),
				Pix:   d("30.00"),
				Total: d("160.00"),
			},
		},
		{
			name:    "deposits only affect cash",
			opening: d("50"),
			sales:   Totals{Debit: d("40"), Credit: d("60")},
			mov:     MovementSums{Deposits: d("25")},
			want: Expected{
				Cash:   d("75"),
				Debit:  d("40"),
				Credit: d("60"),
				Total:  d("175"),
			},
		},
		{
			name:    "withdrawals can drive expected cash negative",
			opening: d("10"),
			mov:     MovementSums{Withdrawals: d("30")},
			want: Expected{
				Cash:  d("-20"),
				Total: d("-20"),
			},
		},
		{
			name:    "all four tenders",
			opening: d("200"),
			sales:   Totals{Cash: d("150.50"), Pix: d("99.90"), Debit: d("80"), Credit: d("120.10")},
			mov:     MovementSums{Deposits: d("10"), Withdrawals: d("60")},
			want: Expected{
				Cash:   d("300.50"),
				Pix:    d("99.90"),
				Debit:  d("80"),
				Credit: d("120.10"),
				Total:  d("600.50"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeExpected(tt.opening, tt.sales, tt.mov)
			assert.True(t, tt.want.Cash.Equal(got.Cash), "cash: want %s got %s", tt.want.Cash, got.Cash)
			assert.True(t, tt.want.Pix.Equal(got.Pix), "pix: want %s got %s", tt.want.Pix, got.Pix)
			assert.True(t, tt.want.Debit.Equal(got.Debit), "debit: want %s got %s", tt.want.Debit, got.Debit)
			assert.True(t, tt.want.Credit.Equal(got.Credit), "credit: want %s got %s", tt.want.Credit, got.Credit)
			assert.True(t, tt.want.Total.Equal(got.Total), "total: want %s got %s", tt.want.Total, got.Total)
		})
	}
}

func TestComputeExpectedIsDeterministic(t *testing.T) {
	sales := Totals{Cash: d("50"), Pix: d("30")}
	mov := MovementSums{Withdrawals: d("20")}

	a := ComputeExpected(d("100"), sales, mov)
	b := ComputeExpected(d("100"), sales, mov)
	assert.True(t, a.Total.Equal(b.Total))
	assert.True(t, a.Cash.Equal(b.Cash))
}

func TestDifference(t *testing.T) {
	exp := ComputeExpected(d("100"), Totals{Cash: d("50"), Pix: d("30")}, MovementSums{Withdrawals: d("20")})

	// drawer five short of the expected 160
	counted := Totals{Cash: d("125"), Pix: d("30")}
	assert.True(t, Difference(counted, exp).Equal(d("-5")))

	// exact count
	counted = Totals{Cash: d("130"), Pix: d("30")}
	assert.True(t, Difference(counted, exp).IsZero())

	// drawer over
	counted = Totals{Cash: d("131.50"), Pix: d("30")}
	assert.True(t, Difference(counted, exp).Equal(d("1.50")))
}

func TestNegativeCash(t *testing.T) {
	exp := ComputeExpected(d("10"), Totals{}, MovementSums{Withdrawals: d("30")})
	assert.True(t, exp.NegativeCash())

	exp = ComputeExpected(d("10"), Totals{}, MovementSums{Withdrawals: d("10")})
	assert.False(t, exp.NegativeCash())
}

func TestTotalsSumAndAnyNegative(t *testing.T) {
	tot := Totals{Cash: d("1"), Pix: d("2"), Debit: d("3"), Credit: d("4")}
	assert.True(t, tot.Sum().Equal(d("10")))
	assert.False(t, tot.AnyNegative())

	tot.Debit = d("-0.01")
	assert.True(t, tot.AnyNegative())
}
