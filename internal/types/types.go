package types

import (
	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/shopspring/decimal"
)

type ClientMessage struct {
	Type          string              `json:"type"`
	Name          string              `json:"name,omitempty"`
	Budget        decimal.NullDecimal `json:"budget"`
	ParticipantID int                 `json:"participant_id,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	ItemIndex     *int                `json:"item_index,omitempty"`
	Slot          string              `json:"slot,omitempty"`
	Filter        engine.Filter       `json:"filter"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "StateSnapshot" | "Error"
	Version int            `json:"version,omitempty"`
	State   *engine.View   `json:"state,omitempty"`
	Events  []engine.Event `json:"events,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)
