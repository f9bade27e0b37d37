package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Offer is an item put up for auction, priced by whoever supplied it.
type Offer struct {
	Name         string          `json:"name"`
	Position     Position        `json:"position"`
	Tier         string          `json:"tier"`
	Club         string          `json:"club,omitempty"`
	League       string          `json:"league,omitempty"`
	Era          string          `json:"era,omitempty"`
	MarketValue  decimal.Decimal `json:"market_value"`
	DynamicValue decimal.Decimal `json:"dynamic_value"`
	Trend        Trend           `json:"trend,omitempty"`

	// Remaining is how many items matched the filter, this one included.
	Remaining int `json:"remaining"`
}

// Round is the bidding lifecycle of one offered item.
type Round struct {
	Offer    Offer
	Ledger   Ledger
	OpenedAt time.Time
}

type Sale struct {
	ID        string          `json:"id"`
	BuyerID   int             `json:"buyer_id"`
	BuyerName string          `json:"buyer_name"`
	Item      Item            `json:"item"`
	Amount    decimal.Decimal `json:"amount"`
}

// Resolve sells the round's item to the ledger leader. The buyer's budget is
// checked again here since it may have changed after the bid was accepted.
// On error nothing is modified.
func Resolve(r *Round, gs *GameState) (Sale, error) {
	lead, ok := r.Ledger.Leader()
	if !ok {
		return Sale{}, fmt.Errorf("%w: players must place bids first", ErrNoBids)
	}
	buyer, ok := gs.Find(lead.ParticipantID)
	if !ok {
		return Sale{}, fmt.Errorf("%w: buyer %d (%s)", ErrNotFound, lead.ParticipantID, lead.ParticipantName)
	}
	if buyer.Budget.LessThan(lead.Amount) {
		return Sale{}, fmt.Errorf("%w: %s no longer has enough budget (has %s, bid %s)",
			ErrInsufficientFunds, buyer.Name, buyer.Budget.StringFixed(1), lead.Amount.StringFixed(1))
	}

	item := Item{
		Name:     r.Offer.Name,
		Position: r.Offer.Position,
		Tier:     r.Offer.Tier,
		Price:    lead.Amount,
	}
	buyer.Budget = buyer.Budget.Sub(lead.Amount)
	buyer.Inventory = append(buyer.Inventory, item)

	return Sale{
		ID:        uuid.NewString(),
		BuyerID:   buyer.ID,
		BuyerName: buyer.Name,
		Item:      item,
		Amount:    lead.Amount,
	}, nil
}

// DefaultResaleRate is applied to the price paid, not to any market value;
// owned items do not track one.
var DefaultResaleRate = decimal.RequireFromString("0.8")

func ResaleValue(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate).Round(1)
}

// SellItem removes an inventory item for rate*price paid and fixes up the
// roster indices.
func (p *Participant) SellItem(itemIndex int, rate decimal.Decimal) (Item, decimal.Decimal, error) {
	if itemIndex < 0 || itemIndex >= len(p.Inventory) {
		return Item{}, decimal.Zero, fmt.Errorf("%w: item %d in %s's inventory", ErrNotFound, itemIndex, p.Name)
	}
	item := p.Inventory[itemIndex]
	value := ResaleValue(item.Price, rate)

	p.Inventory = slices.Delete(p.Inventory, itemIndex, itemIndex+1)
	p.Budget = p.Budget.Add(value)
	p.OnItemRemoved(itemIndex)
	return item, value, nil
}
