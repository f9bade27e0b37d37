package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Filter struct {
	Era      string   `json:"era,omitempty"`
	League   string   `json:"league,omitempty"`
	Position string   `json:"position,omitempty"`
	Tier     string   `json:"tier,omitempty"`
	Clubs    []string `json:"clubs,omitempty"`
}

// Supplier hands out the next item to auction. It must return an error
// wrapping ErrSupplyExhausted when nothing matches.
type Supplier interface {
	Next(ctx context.Context, f Filter, exclude []string) (Offer, error)
}

// Store persists the full game state. Load returns nil, nil when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (*GameState, error)
	Save(ctx context.Context, s GameState) error
}

// ChangeNotifier reports that the persisted state was changed by someone
// else. Watch blocks until ctx is done.
type ChangeNotifier interface {
	Watch(ctx context.Context, onChange func()) error
}

type CommandType string

const (
	CmdRegister       CommandType = "Register"
	CmdDeregister     CommandType = "Deregister"
	CmdOfferNext      CommandType = "OfferNext"
	CmdPlaceBid       CommandType = "PlaceBid"
	CmdPass           CommandType = "Pass"
	CmdPause          CommandType = "Pause"
	CmdResume         CommandType = "Resume"
	CmdTogglePause    CommandType = "TogglePause"
	CmdSellNow        CommandType = "SellNow"
	CmdCancelRound    CommandType = "CancelRound"
	CmdMove           CommandType = "Move"
	CmdRemoveFromSlot CommandType = "RemoveFromSlot"
	CmdAutofill       CommandType = "Autofill"
	CmdSellItem       CommandType = "SellItem"
	CmdReset          CommandType = "Reset"
	CmdReload         CommandType = "Reload"
)

/*
	CmdOfferNext   -> [EvtRoundClosed(abandoned)] -> EvtRoundOpened
	CmdPlaceBid    -> EvtBidPlaced -> EvtTurnAdvanced
	CmdPass        -> EvtTurnAdvanced
	timer          -> EvtTimerTick ... EvtTurnAdvanced(timeout)
	CmdSellNow     -> EvtItemSold -> EvtRoundClosed
	CmdMove / CmdRemoveFromSlot / CmdAutofill -> EvtRosterChanged
*/

type Command struct {
	Type          CommandType
	ParticipantID int
	Name          string
	Budget        decimal.NullDecimal
	Amount        decimal.Decimal
	ItemIndex     int
	Slot          SlotID
	Filter        Filter
}

type EventType string

const (
	EvtParticipantRegistered EventType = "ParticipantRegistered"
	EvtParticipantRemoved    EventType = "ParticipantRemoved"
	EvtRoundOpened           EventType = "RoundOpened"
	EvtRoundClosed           EventType = "RoundClosed"
	EvtBidPlaced             EventType = "BidPlaced"
	EvtTurnAdvanced          EventType = "TurnAdvanced"
	EvtTimerTick             EventType = "TimerTick"
	EvtPaused                EventType = "Paused"
	EvtResumed               EventType = "Resumed"
	EvtItemSold              EventType = "ItemSold"
	EvtRosterChanged         EventType = "RosterChanged"
	EvtItemResold            EventType = "ItemResold"
	EvtSessionReset          EventType = "SessionReset"
	EvtStateReloaded         EventType = "StateReloaded"
)

type Event struct {
	Type          EventType       `json:"type"`
	ParticipantID int             `json:"participant_id,omitempty"`
	Item          string          `json:"item,omitempty"`
	Slot          SlotID          `json:"slot,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitzero"`
	Remaining     int             `json:"remaining,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

type Options struct {
	Rules    Rules
	Supplier Supplier
	Store    Store
	Clock    Clock
	Logger   *zap.Logger
	Now      func() time.Time

	// OnTimer receives the events produced by timer ticks, on the goroutine
	// the clock runs callbacks on.
	OnTimer func([]Event)
}

// Engine runs one auction. It is not safe for concurrent use: every call,
// including clock callbacks, must come from a single goroutine.
type Engine struct {
	rules    Rules
	supplier Supplier
	store    Store
	clock    Clock
	log      *zap.Logger
	now      func() time.Time
	onTimer  func([]Event)

	state GameState
	round *Round
	sched *Scheduler

	used  []string
	shown int

	pending []Event
}

func New(opts Options) *Engine {
	e := &Engine{
		rules:    opts.Rules.withDefaults(),
		supplier: opts.Supplier,
		store:    opts.Store,
		clock:    opts.Clock,
		log:      opts.Logger,
		now:      opts.Now,
		onTimer:  opts.OnTimer,
		state:    NewGameState(),
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	var clock Clock
	if e.clock != nil {
		clock = timerClock{e: e}
	}
	e.sched = NewScheduler(clock, e.rules.TurnUnit, e.rules.TurnSeconds, e.observeTurn)
	return e
}

// Load replaces the in-memory participants with the persisted ones.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load game state: %w", err)
	}
	if st == nil {
		fresh := NewGameState()
		st = &fresh
	}
	st.normalize()
	e.state = *st
	return nil
}

// Apply dispatches a command and returns the events it produced.
func (e *Engine) Apply(ctx context.Context, cmd Command) ([]Event, error) {
	e.pending = nil

	var err error
	switch cmd.Type {
	case CmdRegister:
		_, err = e.Register(ctx, cmd.Name, cmd.Budget)
	case CmdDeregister:
		err = e.Deregister(ctx, cmd.ParticipantID)
	case CmdOfferNext:
		_, err = e.OfferNext(ctx, cmd.Filter)
	case CmdPlaceBid:
		_, err = e.PlaceBid(cmd.ParticipantID, cmd.Amount)
	case CmdPass:
		e.Pass()
	case CmdPause:
		err = e.Pause()
	case CmdResume:
		err = e.Resume()
	case CmdTogglePause:
		err = e.TogglePause()
	case CmdSellNow:
		_, err = e.SellNow(ctx)
	case CmdCancelRound:
		e.CancelRound()
	case CmdMove:
		err = e.Move(ctx, cmd.ParticipantID, cmd.ItemIndex, cmd.Slot)
	case CmdRemoveFromSlot:
		err = e.RemoveFromSlot(ctx, cmd.ParticipantID, cmd.Slot)
	case CmdAutofill:
		_, err = e.Autofill(ctx, cmd.ParticipantID, cmd.ItemIndex)
	case CmdSellItem:
		_, err = e.SellItem(ctx, cmd.ParticipantID, cmd.ItemIndex)
	case CmdReset:
		e.Reset(ctx)
	case CmdReload:
		err = e.Reload(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}

	events := e.pending
	e.pending = nil
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (e *Engine) Register(ctx context.Context, name string, budget decimal.NullDecimal) (*Participant, error) {
	amount := e.rules.StartingBudget
	if budget.Valid {
		amount = budget.Decimal
	}
	p, err := e.state.register(name, amount)
	if err != nil {
		return nil, err
	}
	e.log.Info("participant registered", zap.Int("participant_id", p.ID), zap.String("name", p.Name), zap.Stringer("budget", p.Budget))
	e.emit(Event{Type: EvtParticipantRegistered, ParticipantID: p.ID, Amount: p.Budget})
	e.syncScheduler()
	e.persist(ctx)
	return p, nil
}

// Deregister removes a participant and everything they own. There is no way
// back.
func (e *Engine) Deregister(ctx context.Context, id int) error {
	i := e.state.indexOf(id)
	p, err := e.state.deregister(id)
	if err != nil {
		return err
	}
	e.log.Info("participant removed", zap.Int("participant_id", p.ID), zap.String("name", p.Name))
	e.emit(Event{Type: EvtParticipantRemoved, ParticipantID: p.ID})
	if e.round != nil {
		e.sched.RemoveAt(i)
	}
	e.persist(ctx)
	return nil
}

// OfferNext asks the supplier for an item nobody has seen yet this session
// and opens a round for it.
func (e *Engine) OfferNext(ctx context.Context, f Filter) (Offer, error) {
	if e.supplier == nil {
		return Offer{}, fmt.Errorf("%w: no item supplier configured", ErrSupplyExhausted)
	}
	offer, err := e.supplier.Next(ctx, f, slices.Clone(e.used))
	if err != nil {
		return Offer{}, err
	}
	if err := e.Offer(offer); err != nil {
		return Offer{}, err
	}
	return offer, nil
}

// Offer opens a round for offer. A round that is still open is abandoned
// without a sale.
func (e *Engine) Offer(offer Offer) error {
	if offer.Name == "" {
		return fmt.Errorf("%w: offered item has no name", ErrValidation)
	}
	if offer.DynamicValue.IsNegative() {
		return fmt.Errorf("%w: dynamic value must not be negative", ErrValidation)
	}
	if e.round != nil {
		e.closeRound("abandoned")
	}
	if !slices.Contains(e.used, offer.Name) {
		e.used = append(e.used, offer.Name)
	}
	e.shown++
	e.round = &Round{Offer: offer, OpenedAt: e.now()}
	e.sched.Open(len(e.state.Participants))

	e.log.Debug("round opened", zap.String("item", offer.Name), zap.Stringer("dynamic_value", offer.DynamicValue))
	e.emit(Event{Type: EvtRoundOpened, Item: offer.Name, Amount: offer.DynamicValue, Remaining: e.sched.Remaining()})
	return nil
}

// PlaceBid records a bid from the participant whose turn it is and passes the
// turn on.
func (e *Engine) PlaceBid(id int, amount decimal.Decimal) (Bid, error) {
	if e.round == nil {
		return Bid{}, fmt.Errorf("%w: no item is up for auction", ErrValidation)
	}
	p, ok := e.state.Find(id)
	if !ok {
		return Bid{}, fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	turn, ok := e.turnHolder()
	if !ok {
		return Bid{}, fmt.Errorf("%w: bidding is not running", ErrValidation)
	}
	if turn.ID != p.ID {
		return Bid{}, fmt.Errorf("%w: it is %s's turn", ErrValidation, turn.Name)
	}

	bid, err := e.round.Ledger.Submit(p, amount, e.round.Offer.DynamicValue, e.now())
	if err != nil {
		return Bid{}, err
	}
	e.log.Debug("bid placed", zap.Int("participant_id", p.ID), zap.Stringer("amount", amount), zap.String("item", e.round.Offer.Name))
	e.emit(Event{Type: EvtBidPlaced, ParticipantID: p.ID, Item: e.round.Offer.Name, Amount: amount})
	e.sched.Advance(AdvanceBid)
	return bid, nil
}

// Pass gives the turn away. Without a running round it does nothing.
func (e *Engine) Pass() {
	if e.round == nil {
		return
	}
	e.sched.Advance(AdvancePass)
}

func (e *Engine) Pause() error {
	if e.round == nil || e.sched.State() == SchedulerIdle {
		return fmt.Errorf("%w: bidding is not running", ErrValidation)
	}
	if e.sched.State() == SchedulerPaused {
		return nil
	}
	e.sched.Pause()
	e.emit(Event{Type: EvtPaused, Remaining: e.sched.Remaining()})
	return nil
}

func (e *Engine) Resume() error {
	if e.round == nil || e.sched.State() == SchedulerIdle {
		return fmt.Errorf("%w: bidding is not running", ErrValidation)
	}
	if e.sched.State() == SchedulerRunning {
		return nil
	}
	e.sched.Resume()
	e.emit(Event{Type: EvtResumed, Remaining: e.sched.Remaining()})
	return nil
}

func (e *Engine) TogglePause() error {
	if e.sched.State() == SchedulerPaused {
		return e.Resume()
	}
	return e.Pause()
}

// SellNow closes the round in favour of the leading bid. A failed sale
// leaves the round open so the operator can retry or cancel.
func (e *Engine) SellNow(ctx context.Context) (Sale, error) {
	if e.round == nil {
		return Sale{}, fmt.Errorf("%w: no item is up for auction", ErrValidation)
	}
	sale, err := Resolve(e.round, &e.state)
	if err != nil {
		return Sale{}, err
	}

	e.log.Info("item sold",
		zap.String("sale_id", sale.ID),
		zap.String("item", sale.Item.Name),
		zap.Int("buyer_id", sale.BuyerID),
		zap.Stringer("amount", sale.Amount),
	)
	e.emit(Event{Type: EvtItemSold, ParticipantID: sale.BuyerID, Item: sale.Item.Name, Amount: sale.Amount})
	e.closeRound("sold")
	e.persist(ctx)
	return sale, nil
}

// CancelRound drops the current round without a sale.
func (e *Engine) CancelRound() {
	if e.round == nil {
		return
	}
	e.closeRound("cancelled")
}

// Move is the single roster command behind drag and drop and slot clicks.
func (e *Engine) Move(ctx context.Context, id, itemIndex int, slot SlotID) error {
	p, ok := e.state.Find(id)
	if !ok {
		return fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	if err := p.Assign(itemIndex, slot); err != nil {
		return err
	}
	e.emit(Event{Type: EvtRosterChanged, ParticipantID: id, Slot: slot, Item: p.Inventory[itemIndex].Name})
	e.persist(ctx)
	return nil
}

func (e *Engine) RemoveFromSlot(ctx context.Context, id int, slot SlotID) error {
	p, ok := e.state.Find(id)
	if !ok {
		return fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	changed, err := p.RemoveFromSlot(slot)
	if err != nil || !changed {
		return err
	}
	e.emit(Event{Type: EvtRosterChanged, ParticipantID: id, Slot: slot, Reason: "removed"})
	e.persist(ctx)
	return nil
}

func (e *Engine) Autofill(ctx context.Context, id, itemIndex int) (SlotID, error) {
	p, ok := e.state.Find(id)
	if !ok {
		return "", fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	slot, err := p.Autofill(itemIndex)
	if err != nil {
		return "", err
	}
	e.emit(Event{Type: EvtRosterChanged, ParticipantID: id, Slot: slot, Item: p.Inventory[itemIndex].Name, Reason: "autofill"})
	e.persist(ctx)
	return slot, nil
}

// SellItem resells an owned item at the configured share of its price paid.
func (e *Engine) SellItem(ctx context.Context, id, itemIndex int) (decimal.Decimal, error) {
	p, ok := e.state.Find(id)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	item, value, err := p.SellItem(itemIndex, e.rules.ResaleRate)
	if err != nil {
		return decimal.Zero, err
	}
	e.log.Info("item resold", zap.Int("participant_id", id), zap.String("item", item.Name), zap.Stringer("value", value))
	e.emit(Event{Type: EvtItemResold, ParticipantID: id, Item: item.Name, Amount: value})
	e.persist(ctx)
	return value, nil
}

// Reset wipes the session: participants, seen items and the open round.
func (e *Engine) Reset(ctx context.Context) {
	if e.round != nil {
		e.closeRound("reset")
	}
	e.sched.Close()
	next := e.state.NextID
	e.state = NewGameState()
	e.state.NextID = next
	e.used = nil
	e.shown = 0

	e.log.Info("session reset")
	e.emit(Event{Type: EvtSessionReset})
	e.persist(ctx)
}

// Reload discards the in-memory participants and reads them back from the
// store. Nothing is merged: whatever was saved last wins.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		return err
	}
	e.syncScheduler()
	e.log.Debug("state reloaded", zap.Int("participants", len(e.state.Participants)))
	e.emit(Event{Type: EvtStateReloaded})
	return nil
}

func (e *Engine) closeRound(reason string) {
	name := e.round.Offer.Name
	e.sched.Close()
	e.round = nil
	e.emit(Event{Type: EvtRoundClosed, Item: name, Reason: reason})
}

// syncScheduler follows participant count changes during a round.
func (e *Engine) syncScheduler() {
	if e.round == nil {
		return
	}
	n := len(e.state.Participants)
	if e.sched.State() == SchedulerIdle {
		e.sched.Open(n)
		return
	}
	e.sched.Resize(n)
}

func (e *Engine) turnHolder() (*Participant, bool) {
	if e.sched.State() == SchedulerIdle {
		return nil, false
	}
	i := e.sched.Current()
	if i < 0 || i >= len(e.state.Participants) {
		return nil, false
	}
	return e.state.Participants[i], true
}

func (e *Engine) observeTurn(ev TurnEvent) {
	if ev.Advanced {
		var id int
		if p, ok := e.turnHolder(); ok {
			id = p.ID
		}
		e.emit(Event{Type: EvtTurnAdvanced, ParticipantID: id, Remaining: ev.Remaining, Reason: string(ev.Reason)})
		return
	}
	e.emit(Event{Type: EvtTimerTick, Remaining: ev.Remaining})
}

func (e *Engine) emit(ev Event) {
	e.pending = append(e.pending, ev)
}

func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, e.state.Clone()); err != nil {
		e.log.Warn("save game state failed", zap.Error(err))
	}
}

// timerClock hands scheduler ticks to the real clock and flushes the events
// they produce to OnTimer.
type timerClock struct{ e *Engine }

func (c timerClock) Every(d time.Duration, fn func()) func() {
	return c.e.clock.Every(d, func() {
		c.e.pending = nil
		fn()
		events := c.e.pending
		c.e.pending = nil
		if len(events) > 0 && c.e.onTimer != nil {
			c.e.onTimer(events)
		}
	})
}
