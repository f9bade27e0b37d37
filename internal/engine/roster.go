package engine

import (
	"fmt"
	"sort"
)

// Assign places inventory item itemIndex into slot. The item leaves any slot
// it already held and whoever occupied slot goes back to the bench; nothing
// is swapped.
func (p *Participant) Assign(itemIndex int, slot SlotID) error {
	if _, ok := LookupSlot(slot); !ok {
		return fmt.Errorf("%w: slot %q", ErrNotFound, slot)
	}
	if itemIndex < 0 || itemIndex >= len(p.Inventory) {
		return fmt.Errorf("%w: item %d in %s's inventory", ErrNotFound, itemIndex, p.Name)
	}
	if p.Roster == nil {
		p.Roster = map[SlotID]int{}
	}
	if from, ok := p.slotOf(itemIndex); ok {
		delete(p.Roster, from)
	}
	p.Roster[slot] = itemIndex
	return nil
}

// RemoveFromSlot sends the occupant of slot back to the bench. Empty slots
// are a no-op.
func (p *Participant) RemoveFromSlot(slot SlotID) (bool, error) {
	if _, ok := LookupSlot(slot); !ok {
		return false, fmt.Errorf("%w: slot %q", ErrNotFound, slot)
	}
	if _, ok := p.Roster[slot]; !ok {
		return false, nil
	}
	delete(p.Roster, slot)
	return true, nil
}

// Autofill puts the item into the first empty slot its position strictly
// qualifies for.
func (p *Participant) Autofill(itemIndex int) (SlotID, error) {
	if itemIndex < 0 || itemIndex >= len(p.Inventory) {
		return "", fmt.Errorf("%w: item %d in %s's inventory", ErrNotFound, itemIndex, p.Name)
	}
	item := p.Inventory[itemIndex]
	for _, slot := range AutofillCandidates(item.Position) {
		if _, taken := p.Roster[slot]; taken {
			continue
		}
		if err := p.Assign(itemIndex, slot); err != nil {
			return "", err
		}
		return slot, nil
	}
	return "", fmt.Errorf("%w: no empty default slot for %s, assign it manually", ErrNoEmptySlot, item.Position)
}

// OnItemRemoved keeps roster indices pointing at the same items after the
// inventory entry at removed has been deleted.
func (p *Participant) OnItemRemoved(removed int) {
	for slot, idx := range p.Roster {
		switch {
		case idx == removed:
			delete(p.Roster, slot)
		case idx > removed:
			p.Roster[slot] = idx - 1
		}
	}
}

// BenchEntry is an unassigned inventory item with its inventory index.
type BenchEntry struct {
	Index int  `json:"index"`
	Item  Item `json:"item"`
}

// Bench lists the items not in any slot. When slot is non-empty the list is
// narrowed with BrowseCompatible.
func (p *Participant) Bench(slot SlotID) ([]BenchEntry, error) {
	var target *Slot
	if slot != "" {
		s, ok := LookupSlot(slot)
		if !ok {
			return nil, fmt.Errorf("%w: slot %q", ErrNotFound, slot)
		}
		target = &s
	}

	assigned := make(map[int]bool, len(p.Roster))
	for _, idx := range p.Roster {
		assigned[idx] = true
	}

	out := []BenchEntry{}
	for i, item := range p.Inventory {
		if assigned[i] {
			continue
		}
		if target != nil && !BrowseCompatible(item.Position, *target) {
			continue
		}
		out = append(out, BenchEntry{Index: i, Item: item})
	}
	return out, nil
}

func (p *Participant) slotOf(itemIndex int) (SlotID, bool) {
	// Deterministic order so a corrupted roster resolves the same way every time.
	slots := make([]string, 0, len(p.Roster))
	for s := range p.Roster {
		slots = append(slots, string(s))
	}
	sort.Strings(slots)
	for _, s := range slots {
		if p.Roster[SlotID(s)] == itemIndex {
			return SlotID(s), true
		}
	}
	return "", false
}
