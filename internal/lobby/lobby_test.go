package lobby

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "client outbox closed unexpectedly")
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got version %d", within, s.Version)
	case <-time.After(within):
		// good: no snapshot
	}
}

type fixedSupplier struct{ names []string }

func (s fixedSupplier) Next(_ context.Context, _ engine.Filter, exclude []string) (engine.Offer, error) {
	for _, n := range s.names {
		if !slices.Contains(exclude, n) {
			return engine.Offer{Name: n, Position: engine.PosST, DynamicValue: decimal.NewFromInt(10)}, nil
		}
	}
	return engine.Offer{}, fmt.Errorf("%w: empty", engine.ErrSupplyExhausted)
}

func newTestLobby(t *testing.T, cfg Config) *Lobby {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	l, err := NewLobby(ctx, "TEST01", cfg)
	require.NoError(t, err)
	return l
}

func fastRules() engine.Rules {
	return engine.Rules{TurnSeconds: 2, TurnUnit: 20 * time.Millisecond}
}

func TestLobby_Command_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	l := newTestLobby(t, Config{})

	clientOut := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}

	first := recvSnapshot(t, clientOut, 100*time.Millisecond)
	assert.Equal(t, 0, first.Version)
	assert.Empty(t, first.View.Participants)

	l.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdRegister, Name: "Ana"}}

	next := recvSnapshot(t, clientOut, 100*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.View.Participants, 1)
	assert.Equal(t, "Ana", next.View.Participants[0].Name)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtParticipantRegistered))

	l.Inbox() <- Shutdown{}
}

func TestLobby_RejectedCommandRepliesAndDoesNotBroadcast(t *testing.T) {
	l := newTestLobby(t, Config{})

	out := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	err := l.Submit(context.Background(), "ch1", engine.Command{Type: engine.CmdPlaceBid, ParticipantID: 1, Amount: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, engine.ErrValidation)
	recvNoSnapshot(t, out, 50*time.Millisecond)

	v, err := l.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v.Version)
}

func TestLobby_DropSlowClient(t *testing.T) {
	l := newTestLobby(t, Config{})

	clientOut := make(chan Snapshot, 1)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}

	require.NoError(t, l.Submit(context.Background(), "", engine.Command{Type: engine.CmdRegister, Name: "Ana"}))

	view, err := l.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, view.NumClients, "expected slow client to be dropped")
}

func TestLobby_TimerAdvancesTurn(t *testing.T) {
	l := newTestLobby(t, Config{Rules: fastRules(), Supplier: fixedSupplier{names: []string{"Vieri"}}})
	ctx := context.Background()

	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdRegister, Name: "P1"}))
	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdRegister, Name: "P2"}))

	out := make(chan Snapshot, 16)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdOfferNext}))
	opened := recvSnapshot(t, out, 100*time.Millisecond)
	require.NotNil(t, opened.View.Round)
	assert.Equal(t, "P1", opened.View.Round.CurrentName)

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-out:
			if snap.View.Round != nil && snap.View.Round.CurrentName == "P2" {
				assert.True(t, engine.ContainsEvent(snap.Events, engine.EvtTurnAdvanced))
				assert.Greater(t, snap.Version, opened.Version)
				return
			}
		case <-deadline:
			t.Fatalf("turn never advanced")
		}
	}
}

func TestLobby_CancelledTimerDropsStaleTicks(t *testing.T) {
	l := newTestLobby(t, Config{Rules: fastRules(), Supplier: fixedSupplier{names: []string{"Vieri"}}})
	ctx := context.Background()

	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdRegister, Name: "P1"}))
	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdOfferNext}))
	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdCancelRound}))

	out := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	recvNoSnapshot(t, out, 120*time.Millisecond)
}

func TestLobby_Shutdown_StopsTimer_NoFire(t *testing.T) {
	l := newTestLobby(t, Config{Rules: fastRules(), Supplier: fixedSupplier{names: []string{"Vieri"}}})
	ctx := context.Background()

	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdRegister, Name: "P1"}))

	out := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	require.NoError(t, l.Submit(ctx, "", engine.Command{Type: engine.CmdOfferNext}))
	_ = recvSnapshot(t, out, 100*time.Millisecond)
	l.Inbox() <- Shutdown{}

	// Either nothing arrives or the outbox is closed.
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-time.After(150 * time.Millisecond):
			return
		}
	}
}

type stubStore struct{ state *engine.GameState }

func (s *stubStore) Load(context.Context) (*engine.GameState, error) {
	if s.state == nil {
		return nil, nil
	}
	c := s.state.Clone()
	return &c, nil
}

func (s *stubStore) Save(_ context.Context, st engine.GameState) error {
	s.state = &st
	return nil
}

type chanNotifier chan struct{}

func (n chanNotifier) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-n:
			onChange()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestLobby_ReloadOnChangeNotification(t *testing.T) {
	store := &stubStore{}
	notify := make(chanNotifier)
	l := newTestLobby(t, Config{Store: store, Notifier: notify})

	out := make(chan Snapshot, 4)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	// Someone else writes the store.
	other := &stubStore{}
	e := engine.New(engine.Options{Store: other})
	_, err := e.Register(context.Background(), "Remote", decimal.NullDecimal{})
	require.NoError(t, err)
	store.state = other.state

	notify <- struct{}{}

	snap := recvSnapshot(t, out, 200*time.Millisecond)
	require.Len(t, snap.View.Participants, 1)
	assert.Equal(t, "Remote", snap.View.Participants[0].Name)
	assert.True(t, engine.ContainsEvent(snap.Events, engine.EvtStateReloaded))
}
