package engine

import (
	"slices"
	"strings"
)

type Position string

const (
	PosGK  Position = "GK"
	PosCB  Position = "CB"
	PosLB  Position = "LB"
	PosRB  Position = "RB"
	PosLWB Position = "LWB"
	PosRWB Position = "RWB"
	PosCDM Position = "CDM"
	PosCM  Position = "CM"
	PosCAM Position = "CAM"
	PosLM  Position = "LM"
	PosRM  Position = "RM"
	PosLW  Position = "LW"
	PosRW  Position = "RW"
	PosST  Position = "ST"
	PosCF  Position = "CF"
	PosSS  Position = "SS"

	// Generic group positions.
	PosDEF Position = "DEF"
	PosMID Position = "MID"
	PosFWD Position = "FWD"
)

var positions = []Position{
	PosGK,
	PosCB, PosLB, PosRB, PosLWB, PosRWB,
	PosCDM, PosCM, PosCAM, PosLM, PosRM,
	PosLW, PosRW, PosST, PosCF, PosSS,
	PosDEF, PosMID, PosFWD,
}

func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(positions, p) {
		return p, true
	}
	return "", false
}

type SlotID string

const (
	SlotGK  SlotID = "gk"
	SlotLB  SlotID = "lb"
	SlotCB1 SlotID = "cb1"
	SlotCB2 SlotID = "cb2"
	SlotRB  SlotID = "rb"
	SlotCDM SlotID = "cdm"
	SlotCM1 SlotID = "cm1"
	SlotCM2 SlotID = "cm2"
	SlotLW  SlotID = "lw"
	SlotST  SlotID = "st"
	SlotRW  SlotID = "rw"
)

type Slot struct {
	ID       SlotID   `json:"id"`
	Requires Position `json:"requires"`
}

// Formation is the 4-3-3 board every participant shares, back to front.
var Formation = []Slot{
	{ID: SlotGK, Requires: PosGK},

	{ID: SlotLB, Requires: PosLB},
	{ID: SlotCB1, Requires: PosCB},
	{ID: SlotCB2, Requires: PosCB},
	{ID: SlotRB, Requires: PosRB},

	{ID: SlotCDM, Requires: PosCDM},
	{ID: SlotCM1, Requires: PosCM},
	{ID: SlotCM2, Requires: PosCM},

	{ID: SlotLW, Requires: PosLW},
	{ID: SlotST, Requires: PosST},
	{ID: SlotRW, Requires: PosRW},
}

func LookupSlot(id SlotID) (Slot, bool) {
	for _, s := range Formation {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

var (
	defenders   = []Position{PosDEF, PosLB, PosRB, PosCB, PosLWB, PosRWB}
	midfielders = []Position{PosMID, PosCDM, PosCM, PosCAM, PosRM, PosLM}
	attackers   = []Position{PosFWD, PosLW, PosRW, PosST, PosCF, PosSS, PosLM, PosRM}
)

// BrowseCompatible is the loose, group based rule used to list bench
// candidates for a selected slot.
func BrowseCompatible(player Position, slot Slot) bool {
	switch slot.Requires {
	case PosGK:
		return player == PosGK
	case PosLB, PosRB, PosCB:
		return slices.Contains(defenders, player)
	case PosCDM, PosCM:
		return slices.Contains(midfielders, player)
	case PosLW, PosRW, PosST:
		return slices.Contains(attackers, player)
	default:
		return false
	}
}

// autofillSlots is the strict table used for automatic placement. It is
// intentionally narrower than BrowseCompatible.
var autofillSlots = map[Position][]SlotID{
	PosGK:  {SlotGK},
	PosLB:  {SlotLB},
	PosRB:  {SlotRB},
	PosCB:  {SlotCB1, SlotCB2},
	PosLWB: {SlotLB},
	PosRWB: {SlotRB},
	PosCDM: {SlotCDM},
	PosCM:  {SlotCM1, SlotCM2},
	PosCAM: {SlotCM1, SlotCM2},
	PosLM:  {SlotLW},
	PosLW:  {SlotLW},
	PosRM:  {SlotRW},
	PosRW:  {SlotRW},
	PosST:  {SlotST},
	PosCF:  {SlotST},
	PosSS:  {SlotST},
}

// AutofillCandidates returns the ordered slots a position may be placed in
// automatically. Generic positions have none.
func AutofillCandidates(p Position) []SlotID {
	return slices.Clone(autofillSlots[p])
}
