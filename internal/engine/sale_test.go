package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	gs := NewGameState()
	buyer, err := gs.register("Ana", d(100))
	require.NoError(t, err)

	r := &Round{Offer: Offer{Name: "Xavi", Position: PosCM, Tier: "gold", DynamicValue: d(10)}}
	_, err = Resolve(r, &gs)
	require.ErrorIs(t, err, ErrNoBids)

	_, err = r.Ledger.Submit(buyer, d(30), d(10), time.Now())
	require.NoError(t, err)

	sale, err := Resolve(r, &gs)
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.True(t, buyer.Budget.Equal(d(70)))
	require.Len(t, buyer.Inventory, 1)
	assert.Equal(t, Item{Name: "Xavi", Position: PosCM, Tier: "gold", Price: d(30)}, buyer.Inventory[0])
}

func TestResolve_BuyerGone(t *testing.T) {
	gs := NewGameState()
	buyer, _ := gs.register("Ana", d(100))
	r := &Round{Offer: Offer{Name: "Xavi", DynamicValue: d(10)}}
	_, err := r.Ledger.Submit(buyer, d(10), d(10), time.Now())
	require.NoError(t, err)

	_, err = gs.deregister(buyer.ID)
	require.NoError(t, err)

	_, err = Resolve(r, &gs)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, r.Ledger.Len())
}

func TestResaleValue(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"10", "8"},
		{"13", "10.4"},
		{"7.3", "5.8"},
		{"0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			got := ResaleValue(decimalFrom(t, tc.price), DefaultResaleRate)
			assert.True(t, got.Equal(decimalFrom(t, tc.want)), "got %s", got)
		})
	}
}

func TestSellItem(t *testing.T) {
	p := withItems(PosGK, PosCB, PosST)
	p.Inventory[1].Price = d(20)
	p.Roster = map[SlotID]int{SlotGK: 0, SlotCB1: 1, SlotST: 2}

	item, value, err := p.SellItem(1, DefaultResaleRate)
	require.NoError(t, err)
	assert.Equal(t, PosCB, item.Position)
	assert.True(t, value.Equal(d(16)))
	assert.True(t, p.Budget.Equal(d(116)))
	assert.Len(t, p.Inventory, 2)
	assert.Equal(t, map[SlotID]int{SlotGK: 0, SlotST: 1}, p.Roster)

	_, _, err = p.SellItem(5, DefaultResaleRate)
	require.ErrorIs(t, err, ErrNotFound)
	assert.True(t, p.Budget.Equal(d(116)))
}

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}
