package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

type Item struct {
	Name     string          `json:"name"`
	Position Position        `json:"position"`
	Tier     string          `json:"tier"`
	Price    decimal.Decimal `json:"price"`
}

type Participant struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	Inventory []Item          `json:"inventory"`
	Roster    map[SlotID]int  `json:"roster"`
}

func (p *Participant) clone() *Participant {
	c := *p
	c.Inventory = slices.Clone(p.Inventory)
	c.Roster = maps.Clone(p.Roster)
	if c.Roster == nil {
		c.Roster = map[SlotID]int{}
	}
	return &c
}

// GameState is everything that gets persisted: the participants and the id
// counter. The active round is deliberately not part of it.
type GameState struct {
	Participants []*Participant `json:"participants"`
	NextID       int            `json:"next_id"`
}

func NewGameState() GameState {
	return GameState{Participants: []*Participant{}, NextID: 1}
}

func (s GameState) Clone() GameState {
	out := GameState{NextID: s.NextID, Participants: make([]*Participant, 0, len(s.Participants))}
	for _, p := range s.Participants {
		out.Participants = append(out.Participants, p.clone())
	}
	return out
}

func (s *GameState) Find(id int) (*Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (s *GameState) indexOf(id int) int {
	return slices.IndexFunc(s.Participants, func(p *Participant) bool { return p.ID == id })
}

var nameFolder = cases.Fold()

func sameName(a, b string) bool {
	return nameFolder.String(a) == nameFolder.String(b)
}

// register validates and appends a new participant.
func (s *GameState) register(name string, budget decimal.Decimal) (*Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: participant name is required", ErrValidation)
	}
	if budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	for _, p := range s.Participants {
		if sameName(p.Name, name) {
			return nil, fmt.Errorf("%w: a participant named %q already exists", ErrValidation, p.Name)
		}
	}

	p := &Participant{
		ID:        s.NextID,
		Name:      name,
		Budget:    budget,
		Inventory: []Item{},
		Roster:    map[SlotID]int{},
	}
	s.NextID++
	s.Participants = append(s.Participants, p)
	return p, nil
}

func (s *GameState) deregister(id int) (*Participant, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	p := s.Participants[i]
	s.Participants = slices.Delete(s.Participants, i, i+1)
	return p, nil
}

// normalize repairs state that came from outside (another front-end, a hand
// edited file): nil collections are allocated and roster entries that do not
// point at a unique, existing inventory index are dropped.
func (s *GameState) normalize() {
	if s.Participants == nil {
		s.Participants = []*Participant{}
	}
	if s.NextID < 1 {
		s.NextID = 1
	}
	for _, p := range s.Participants {
		if p.Inventory == nil {
			p.Inventory = []Item{}
		}
		if p.Roster == nil {
			p.Roster = map[SlotID]int{}
		}
		seen := map[int]bool{}
		for _, slot := range Formation {
			idx, ok := p.Roster[slot.ID]
			if !ok {
				continue
			}
			if idx < 0 || idx >= len(p.Inventory) || seen[idx] {
				delete(p.Roster, slot.ID)
				continue
			}
			seen[idx] = true
		}
		for id := range p.Roster {
			if _, ok := LookupSlot(id); !ok {
				delete(p.Roster, id)
			}
		}
		if p.ID >= s.NextID {
			s.NextID = p.ID + 1
		}
	}
}
