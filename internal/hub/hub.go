package hub

import (
	"context"
	"sort"

	"github.com/DoyleJ11/football-auction-backend/internal/lobby"
	"go.uber.org/zap"
)

// Factory builds the lobby for a code. It runs on the hub goroutine.
type Factory func(ctx context.Context, code string) (*lobby.Lobby, error)

// Persisted reports whether saved state exists for a code the hub has not
// opened yet. It runs on the hub goroutine.
type Persisted func(ctx context.Context, code string) (bool, error)

type Option func(*Hub)

// WithPersisted lets GetLobby reopen lobbies saved by an earlier process or
// by another instance sharing the store.
func WithPersisted(fn Persisted) Option {
	return func(h *Hub) { h.persisted = fn }
}

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// GetLobby replies with the open lobby for Code, reopening it from the store
// when it was saved before. Reply receives nil otherwise.
type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby returns the existing lobby or creates it. Reply receives nil
// when creation fails.
type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ListLobbies struct {
	Reply chan []string
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	factory Factory

	persisted Persisted

	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

func NewHub(parent context.Context, factory Factory, log *zap.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		factory: factory,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				msg.Reply <- h.ensure(msg.Code)

			case GetLobby:
				msg.Reply <- h.lookup(msg.Code) // May be nil

			case EnsureLobby:
				msg.Reply <- h.ensure(msg.Code)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Inbox() <- lobby.Shutdown{}
					delete(h.lobbies, msg.Code)
				}

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) ensure(code string) *lobby.Lobby {
	if lb := h.lobbies[code]; lb != nil {
		return lb
	}
	lb, err := h.factory(h.ctx, code)
	if err != nil {
		h.log.Error("create lobby failed", zap.String("lobby", code), zap.Error(err))
		return nil
	}
	h.lobbies[code] = lb
	h.log.Info("lobby created", zap.String("lobby", code))
	return lb
}

func (h *Hub) lookup(code string) *lobby.Lobby {
	if lb := h.lobbies[code]; lb != nil || h.persisted == nil || code == "" {
		return lb
	}
	ok, err := h.persisted(h.ctx, code)
	if err != nil {
		h.log.Warn("lookup saved lobby failed", zap.String("lobby", code), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	h.log.Info("reopening saved lobby", zap.String("lobby", code))
	return h.ensure(code)
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.lobbies)
}
