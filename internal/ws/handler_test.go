package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/DoyleJ11/football-auction-backend/internal/hub"
	"github.com/DoyleJ11/football-auction-backend/internal/lobby"
	"github.com/DoyleJ11/football-auction-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEngineCommand(t *testing.T) {
	three, zero := 3, 0
	cases := []struct {
		name    string
		in      types.ClientMessage
		want    engine.Command
		wantErr error
	}{
		{
			name: "bid",
			in:   types.ClientMessage{Type: "PlaceBid", ParticipantID: 2, Amount: decimal.NewFromInt(14)},
			want: engine.Command{Type: engine.CmdPlaceBid, ParticipantID: 2, Amount: decimal.NewFromInt(14)},
		},
		{
			name: "move",
			in:   types.ClientMessage{Type: "Move", ParticipantID: 1, ItemIndex: &three, Slot: "cb2"},
			want: engine.Command{Type: engine.CmdMove, ParticipantID: 1, ItemIndex: 3, Slot: engine.SlotCB2},
		},
		{
			name: "autofill first item",
			in:   types.ClientMessage{Type: "Autofill", ParticipantID: 1, ItemIndex: &zero},
			want: engine.Command{Type: engine.CmdAutofill, ParticipantID: 1, ItemIndex: 0},
		},
		{
			name: "offer with filter",
			in:   types.ClientMessage{Type: "OfferNext", Filter: engine.Filter{Position: "DEF"}},
			want: engine.Command{Type: engine.CmdOfferNext, Filter: engine.Filter{Position: "DEF"}},
		},
		{name: "autofill without index", in: types.ClientMessage{Type: "Autofill", ParticipantID: 1}, wantErr: engine.ErrValidation},
		{name: "resell without index", in: types.ClientMessage{Type: "SellItem", ParticipantID: 1}, wantErr: engine.ErrValidation},
		{name: "unknown", in: types.ClientMessage{Type: "LockPick"}, wantErr: engine.ErrUnsupportedCommand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToEngineCommand(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHandler_SnapshotAndErrorFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub(ctx, func(ctx context.Context, code string) (*lobby.Lobby, error) {
		return lobby.NewLobby(ctx, code, lobby.Config{})
	}, nil)
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.EnsureLobby{Code: "ABC123", Reply: reply}
	require.NotNil(t, <-reply)

	srv := httptest.NewServer(Handler(h, nil))
	defer srv.Close()

	dialCtx, dialCancel := context.WithTimeout(ctx, 2*time.Second)
	defer dialCancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=ABC123"
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	first := readMessage(t, dialCtx, conn)
	assert.Equal(t, types.MsgStateSnapshot, first.Type)

	send(t, dialCtx, conn, types.ClientMessage{Type: "Register", Name: "Ana"})
	next := readMessage(t, dialCtx, conn)
	assert.Equal(t, types.MsgStateSnapshot, next.Type)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.State.Participants, 1)

	send(t, dialCtx, conn, types.ClientMessage{Type: "Register", Name: "ana"})
	bad := readMessage(t, dialCtx, conn)
	assert.Equal(t, types.MsgError, bad.Type)
	assert.Equal(t, "validation", bad.Code)

	require.NoError(t, conn.Write(dialCtx, websocket.MessageText, []byte("{")))
	garbled := readMessage(t, dialCtx, conn)
	assert.Equal(t, "bad_request", garbled.Code)
}

func TestHandler_UnknownLobby(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, nil, nil)

	srv := httptest.NewServer(Handler(h, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=NOPE00"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, m types.ClientMessage) {
	t.Helper()
	payload, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}
