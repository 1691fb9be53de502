package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", EUR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"-1.005", "-1.01"},
		{"10", "10"},
		{"0.125", "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundCents(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(100), decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(10)))

	got = Percent(decimal.RequireFromString("33.33"), decimal.RequireFromString("7.5"))
	assert.True(t, got.Equal(decimal.RequireFromString("2.5")), "got %s", got)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(10))
	b := NewMoneyUSD(decimal.RequireFromString("2.50"))

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "12.50 USD", sum.String())
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "7.50 USD", diff.String())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur, _ := NewMoney(decimal.NewFromInt(1), EUR)
		_, err := a.Add(eur)
		assert.Error(t, err)
		_, err = a.Subtract(eur)
		assert.Error(t, err)
	})

	t.Run("max", func(t *testing.T) {
		assert.Equal(t, a, a.Max(b))
		assert.Equal(t, a, b.Max(a))
	})
}

func TestMoney_Format(t *testing.T) {
	tests := []struct {
		amount string
		cur    Currency
		want   string
	}{
		{"0", USD, "$0.00"},
		{"5", USD, "$5.00"},
		{"1234.5", USD, "$1,234.50"},
		{"1234567.891", USD, "$1,234,567.89"},
		{"-42.1", GBP, "-£42.10"},
		{"100", "JPY", "JPY 100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.cur)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Format())
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyUSD(decimal.RequireFromString("105"))
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"105.00","currency":"USD"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.3"}`), &back))
	assert.Equal(t, DefaultCurrency, back.Currency())
	assert.True(t, back.Amount().Equal(decimal.RequireFromString("12.3")))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"abc"}`), &back))
}
