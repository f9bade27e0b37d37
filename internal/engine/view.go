package engine

import "github.com/shopspring/decimal"

// View is the read model pushed to every client.
type View struct {
	Participants []ParticipantView `json:"participants"`
	Round        *RoundView        `json:"round,omitempty"`
	PlayersShown int               `json:"players_shown"`
	Formation    []Slot            `json:"formation"`
}

type ParticipantView struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	Inventory []Item          `json:"inventory"`
	Roster    map[SlotID]int  `json:"roster"`
	Bench     []BenchEntry    `json:"bench"`

	// SlotCandidates lists, per slot, the bench indices BrowseCompatible
	// allows there.
	SlotCandidates map[SlotID][]int `json:"slot_candidates"`
}

type RoundView struct {
	Offer       Offer           `json:"offer"`
	Leader      *Bid            `json:"leader,omitempty"`
	MinimumBid  decimal.Decimal `json:"minimum_bid"`
	History     []Bid           `json:"history"`
	CurrentID   int             `json:"current_id"`
	CurrentName string          `json:"current_name,omitempty"`
	Remaining   int             `json:"remaining"`
	TurnSeconds int             `json:"turn_seconds"`
	State       SchedulerState  `json:"state"`
}

func (e *Engine) View() View {
	v := View{
		Participants: make([]ParticipantView, 0, len(e.state.Participants)),
		PlayersShown: e.shown,
		Formation:    Formation,
	}
	for _, p := range e.state.Participants {
		v.Participants = append(v.Participants, participantView(p))
	}
	if e.round != nil {
		v.Round = e.roundView()
	}
	return v
}

// State returns a copy of the persisted part of the game.
func (e *Engine) State() GameState { return e.state.Clone() }

func (e *Engine) RoundOpen() bool { return e.round != nil }

func (e *Engine) Scheduler() SchedulerState { return e.sched.State() }

func participantView(p *Participant) ParticipantView {
	c := p.clone()
	bench, _ := c.Bench("")
	candidates := make(map[SlotID][]int, len(Formation))
	for _, slot := range Formation {
		idx := []int{}
		for _, b := range bench {
			if BrowseCompatible(b.Item.Position, slot) {
				idx = append(idx, b.Index)
			}
		}
		candidates[slot.ID] = idx
	}
	return ParticipantView{
		ID:             c.ID,
		Name:           c.Name,
		Budget:         c.Budget,
		Inventory:      c.Inventory,
		Roster:         c.Roster,
		Bench:          bench,
		SlotCandidates: candidates,
	}
}

func (e *Engine) roundView() *RoundView {
	r := e.round
	rv := &RoundView{
		Offer:       r.Offer,
		MinimumBid:  r.Ledger.MinimumBid(r.Offer.DynamicValue),
		History:     r.Ledger.History(),
		Remaining:   e.sched.Remaining(),
		TurnSeconds: e.sched.TurnSeconds(),
		State:       e.sched.State(),
	}
	if lead, ok := r.Ledger.Leader(); ok {
		rv.Leader = &lead
	}
	if p, ok := e.turnHolder(); ok {
		rv.CurrentID = p.ID
		rv.CurrentName = p.Name
	}
	return rv
}
