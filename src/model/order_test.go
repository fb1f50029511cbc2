package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordertrees/src/store"
)

func testOrder(t *testing.T, data map[string]any) *Order {
	t.Helper()
	s, err := store.ForDirectory(t.TempDir(), false)
	require.NoError(t, err)
	rec, err := s.Create(data, "")
	require.NoError(t, err)
	return Wrap(rec)
}

func TestOrderIDFallsBackToStorageID(t *testing.T) {
	o := testOrder(t, map[string]any{"side": "buy"})
	assert.Equal(t, o.ID(), o.OrderID())

	o = testOrder(t, map[string]any{OrderIDField: "ext-1"})
	assert.Equal(t, "ext-1", o.OrderID())
}

func TestDecimalFieldsParseFromAnyStoredForm(t *testing.T) {
	o := testOrder(t, map[string]any{
		TargetPriceField: "100.50",
		AmountField:      2.5,
	})

	price, err := o.TargetPrice()
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("100.5")))

	amount, err := o.Amount()
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("2.5")))
}

func TestTargetPriceMissingIsAnError(t *testing.T) {
	o := testOrder(t, map[string]any{"side": "buy"})
	_, err := o.TargetPrice()
	assert.Error(t, err)
}

func TestStopPriceFalsyMeansNoStop(t *testing.T) {
	for name, value := range map[string]any{
		"null":        nil,
		"false":       false,
		"zero":        0.0,
		"zero string": "0",
	} {
		t.Run(name, func(t *testing.T) {
			o := testOrder(t, map[string]any{StopPriceField: value})
			_, ok, err := o.StopPrice()
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	o := testOrder(t, map[string]any{StopPriceField: "95"})
	stop, ok, err := o.StopPrice()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stop.Equal(decimal.RequireFromString("95")))
}

func TestEffectiveSize(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{
			name: "no remaining amount uses full amount",
			data: map[string]any{AmountField: "3"},
			want: "3",
		},
		{
			name: "remaining below amount wins",
			data: map[string]any{AmountField: "3", RemainingAmountField: "1.5"},
			want: "1.5",
		},
		{
			name: "remaining above amount is capped",
			data: map[string]any{AmountField: "3", RemainingAmountField: "10"},
			want: "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder(t, tt.data)
			size, err := o.EffectiveSize()
			require.NoError(t, err)
			assert.True(t, size.Equal(decimal.RequireFromString(tt.want)),
				"got %s want %s", size, tt.want)
		})
	}
}

func TestIsStaged(t *testing.T) {
	assert.True(t, testOrder(t, map[string]any{StagedField: true}).IsStaged())
	assert.False(t, testOrder(t, map[string]any{StagedField: false}).IsStaged())
	assert.False(t, testOrder(t, map[string]any{}).IsStaged())
}

func TestReferenceFields(t *testing.T) {
	o := testOrder(t, map[string]any{
		ParentIDField:  "p1",
		NextBuyIDField: "b1",
	})

	parent, ok := o.ParentID()
	assert.True(t, ok)
	assert.Equal(t, "p1", parent)

	buy, ok := o.NextBuyID()
	assert.True(t, ok)
	assert.Equal(t, "b1", buy)

	_, ok = o.NextSellID()
	assert.False(t, ok)
	assert.False(t, o.IsRoot())

	root := testOrder(t, map[string]any{})
	assert.True(t, root.IsRoot())

	// A null reference counts as absent.
	nulled := testOrder(t, map[string]any{ParentIDField: nil})
	_, ok = nulled.ParentID()
	assert.False(t, ok)
	assert.True(t, nulled.IsRoot())
}
