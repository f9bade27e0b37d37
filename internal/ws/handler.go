package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/DoyleJ11/football-auction-backend/internal/hub"
	"github.com/DoyleJ11/football-auction-backend/internal/lobby"
	"github.com/DoyleJ11/football-auction-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var clientCommands = map[string]engine.CommandType{
	"Register":       engine.CmdRegister,
	"Deregister":     engine.CmdDeregister,
	"OfferNext":      engine.CmdOfferNext,
	"PlaceBid":       engine.CmdPlaceBid,
	"Pass":           engine.CmdPass,
	"Pause":          engine.CmdPause,
	"Resume":         engine.CmdResume,
	"TogglePause":    engine.CmdTogglePause,
	"SellNow":        engine.CmdSellNow,
	"CancelRound":    engine.CmdCancelRound,
	"Move":           engine.CmdMove,
	"RemoveFromSlot": engine.CmdRemoveFromSlot,
	"Autofill":       engine.CmdAutofill,
	"SellItem":       engine.CmdSellItem,
	"Reset":          engine.CmdReset,
	"Reload":         engine.CmdReload,
}

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		log := log.With(zap.String("lobby", code), zap.String("client_id", clientID))

		lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-time.After(time.Second):
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: types.MsgStateSnapshot, Version: snap.Version, State: &snap.View, Events: snap.Events}
				write(writeCtx, conn, msg)
			}
			// The lobby dropped us or shut down.
			conn.Close(websocket.StatusGoingAway, "lobby closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				write(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Code: "bad_request", Error: "bad json"})
				continue
			}

			cmd, err := ToEngineCommand(cm)
			if err != nil {
				write(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Code: engine.ErrorCode(err), Error: err.Error()})
				continue
			}

			if err := lb.Submit(r.Context(), clientID, cmd); err != nil {
				if errors.Is(err, lobby.ErrClosed) {
					return
				}
				write(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Code: engine.ErrorCode(err), Error: err.Error()})
			}
		}
	}
}

// Commands that address one inventory entry.
var indexedCommands = map[engine.CommandType]bool{
	engine.CmdMove:     true,
	engine.CmdAutofill: true,
	engine.CmdSellItem: true,
}

// ToEngineCommand maps a client message onto an engine command. Unknown types
// wrap engine.ErrUnsupportedCommand; a missing item_index wraps
// engine.ErrValidation.
func ToEngineCommand(m types.ClientMessage) (engine.Command, error) {
	t, ok := clientCommands[m.Type]
	if !ok {
		return engine.Command{}, fmt.Errorf("%w: %q", engine.ErrUnsupportedCommand, m.Type)
	}
	cmd := engine.Command{
		Type:          t,
		ParticipantID: m.ParticipantID,
		Name:          m.Name,
		Budget:        m.Budget,
		Amount:        m.Amount,
		Slot:          engine.SlotID(m.Slot),
		Filter:        m.Filter,
	}
	if m.ItemIndex != nil {
		cmd.ItemIndex = *m.ItemIndex
	} else if indexedCommands[t] {
		return engine.Command{}, fmt.Errorf("%w: %s needs item_index", engine.ErrValidation, m.Type)
	}
	return cmd, nil
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
