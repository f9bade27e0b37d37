package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	ClientID string
	Cmd      engine.Command
	Reply    chan error // optional; must be buffered
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Reload asks the lobby to re-read the persisted participants.
type Reload struct{}

func (Reload) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type timerFired struct{ t *timer }

func (timerFired) isLobbyMsg() {}

type Snapshot struct {
	Version int            `json:"version"`
	View    engine.View    `json:"view"`
	Events  []engine.Event `json:"events,omitempty"`
}

type View struct {
	Version    int
	NumClients int
	State      engine.View
}

type Config struct {
	Rules    engine.Rules
	Supplier engine.Supplier
	Store    engine.Store
	Notifier engine.ChangeNotifier
	Logger   *zap.Logger
}

// Lobby owns one auction engine. Client commands, timer ticks and reload
// notifications are all serialized through its inbox.
type Lobby struct {
	code    string
	inbox   chan Msg
	engine  *engine.Engine
	version int
	clients map[string]chan Snapshot
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, code string, cfg Config) (*Lobby, error) {
	ctx, cancel := context.WithCancel(parent)

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64), // Small buffer
		clients: make(map[string]chan Snapshot),
		log:     log.With(zap.String("lobby", code)),
		ctx:     ctx,
		cancel:  cancel,
	}
	l.engine = engine.New(engine.Options{
		Rules:    cfg.Rules,
		Supplier: cfg.Supplier,
		Store:    cfg.Store,
		Clock:    l,
		Logger:   l.log,
		OnTimer:  l.onTimer,
	})
	if err := l.engine.Load(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("lobby %s: %w", code, err)
	}

	go l.loop()
	if cfg.Notifier != nil {
		go l.watch(cfg.Notifier)
	}
	return l, nil
}

func (l *Lobby) Code() string { return l.code }

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Submit applies cmd and waits for the outcome.
func (l *Lobby) Submit(ctx context.Context, clientID string, cmd engine.Command) error {
	reply := make(chan error, 1)
	if err := l.send(ctx, FromClient{ClientID: clientID, Cmd: cmd, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return ErrClosed
	}
}

// State returns the current view without racing the lobby goroutine.
func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-l.ctx.Done():
		return View{}, ErrClosed
	}
}

func (l *Lobby) send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return ErrClosed
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: l.version, View: l.engine.View()}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				events, err := l.engine.Apply(l.ctx, msg.Cmd)
				if err != nil {
					l.log.Debug("command rejected",
						zap.String("client_id", msg.ClientID),
						zap.String("command", string(msg.Cmd.Type)),
						zap.Error(err),
					)
				} else {
					l.version++
					l.broadcast(Snapshot{Version: l.version, View: l.engine.View(), Events: events})
				}
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case timerFired:
				// A cancelled timer may still have a tick queued.
				if msg.t.stopped.Load() {
					break
				}
				msg.t.fn()

			case Reload:
				events, err := l.engine.Apply(l.ctx, engine.Command{Type: engine.CmdReload})
				if err != nil {
					l.log.Warn("reload failed", zap.Error(err))
					break
				}
				l.version++
				l.broadcast(Snapshot{Version: l.version, View: l.engine.View(), Events: events})

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.engine.View(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) onTimer(events []engine.Event) {
	l.version++
	l.broadcast(Snapshot{Version: l.version, View: l.engine.View(), Events: events})
}

func (l *Lobby) shutdown() {
	l.engine.CancelRound()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
	l.log.Debug("lobby stopped")
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
			l.log.Debug("dropped slow client", zap.String("client_id", id))
		}
	}
}

func (l *Lobby) watch(n engine.ChangeNotifier) {
	err := n.Watch(l.ctx, func() {
		select {
		case l.inbox <- Reload{}:
		case <-l.ctx.Done():
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		l.log.Warn("change notifications stopped", zap.Error(err))
	}
}

type timer struct {
	fn      func()
	stopped atomic.Bool
}

// Every implements engine.Clock. Ticks are delivered through the inbox so
// the engine only ever runs on the lobby goroutine.
func (l *Lobby) Every(d time.Duration, fn func()) func() {
	t := &timer{fn: fn}
	stop := make(chan struct{})

	go func() {
		tk := time.NewTicker(d)
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				select {
				case l.inbox <- timerFired{t: t}:
				case <-stop:
					return
				case <-l.ctx.Done():
					return
				}
			case <-stop:
				return
			case <-l.ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.stopped.Store(true)
			close(stop)
		})
	}
}
