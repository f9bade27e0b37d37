package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// BidIncrement is the minimum raise over the current leader.
var BidIncrement = decimal.NewFromInt(1)

type Bid struct {
	ParticipantID   int             `json:"participant_id"`
	ParticipantName string          `json:"participant_name"`
	Amount          decimal.Decimal `json:"amount"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// Ledger records the bids of the current round. The zero value is an empty
// ledger.
type Ledger struct {
	bids   []Bid
	leader int // index into bids, valid only when len(bids) > 0
}

func (l *Ledger) Len() int { return len(l.bids) }

// Leader returns the highest bid. Equal amounts never displace an earlier bid.
func (l *Ledger) Leader() (Bid, bool) {
	if len(l.bids) == 0 {
		return Bid{}, false
	}
	return l.bids[l.leader], true
}

// MinimumBid is leader+increment once someone has bid, the dynamic value
// before that.
func (l *Ledger) MinimumBid(dynamicValue decimal.Decimal) decimal.Decimal {
	if lead, ok := l.Leader(); ok {
		return lead.Amount.Add(BidIncrement)
	}
	return dynamicValue
}

// Submit validates amount against the minimum and the bidder's live budget
// and records it. A rejected bid leaves the ledger untouched.
func (l *Ledger) Submit(p *Participant, amount, dynamicValue decimal.Decimal, at time.Time) (Bid, error) {
	minBid := l.MinimumBid(dynamicValue)
	if amount.LessThan(minBid) {
		return Bid{}, fmt.Errorf("%w: bid must be at least %s", ErrValidation, minBid.StringFixed(1))
	}
	if amount.GreaterThan(p.Budget) {
		return Bid{}, fmt.Errorf("%w: %s does not have enough budget (has %s)", ErrValidation, p.Name, p.Budget.StringFixed(1))
	}

	bid := Bid{
		ParticipantID:   p.ID,
		ParticipantName: p.Name,
		Amount:          amount,
		PlacedAt:        at,
	}
	l.bids = append(l.bids, bid)
	if len(l.bids) == 1 || amount.GreaterThan(l.bids[l.leader].Amount) {
		l.leader = len(l.bids) - 1
	}
	return bid, nil
}

func (l *Ledger) Clear() {
	l.bids = nil
	l.leader = 0
}

// History returns the bids by amount, highest first. Equal amounts keep
// submission order.
func (l *Ledger) History() []Bid {
	out := slices.Clone(l.bids)
	slices.SortStableFunc(out, func(a, b Bid) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out
}
