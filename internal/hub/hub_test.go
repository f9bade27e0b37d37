package hub

import (
	"context"
	"errors"
	"testing"

	"github.com/DoyleJ11/football-auction-backend/internal/lobby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainFactory(ctx context.Context, code string) (*lobby.Lobby, error) {
	return lobby.NewLobby(ctx, code, lobby.Config{})
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, plainFactory, nil)
	reply := make(chan *lobby.Lobby, 1)

	h.Inbox() <- CreateLobby{Code: "ZED123", Reply: reply}
	lb1 := <-reply

	h.Inbox() <- GetLobby{Code: "ZED123", Reply: reply}
	lb2 := <-reply

	require.NotNil(t, lb1)
	assert.Same(t, lb1, lb2)
	assert.Equal(t, "ZED123", lb1.Code())
}

func TestHub_EnsureReturnsNilOnFactoryError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, func(context.Context, string) (*lobby.Lobby, error) {
		return nil, errors.New("store offline")
	}, nil)

	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- EnsureLobby{Code: "BAD001", Reply: reply}
	assert.Nil(t, <-reply)

	h.Inbox() <- GetLobby{Code: "BAD001", Reply: reply}
	assert.Nil(t, <-reply)
}

func TestHub_ListAndRemove(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, plainFactory, nil)

	reply := make(chan *lobby.Lobby, 1)
	for _, code := range []string{"BBB222", "AAA111"} {
		h.Inbox() <- EnsureLobby{Code: code, Reply: reply}
		require.NotNil(t, <-reply)
	}

	codes := make(chan []string, 1)
	h.Inbox() <- ListLobbies{Reply: codes}
	assert.Equal(t, []string{"AAA111", "BBB222"}, <-codes)

	h.Inbox() <- RemoveLobby{Code: "AAA111"}
	h.Inbox() <- ListLobbies{Reply: codes}
	assert.Equal(t, []string{"BBB222"}, <-codes)
}

func TestHub_GetReopensPersistedLobby(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var asked []string
	h := NewHub(ctx, plainFactory, nil, WithPersisted(func(_ context.Context, code string) (bool, error) {
		asked = append(asked, code)
		switch code {
		case "SAVED1":
			return true, nil
		case "BROKEN":
			return false, errors.New("store offline")
		}
		return false, nil
	}))

	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{Code: "SAVED1", Reply: reply}
	lb := <-reply
	require.NotNil(t, lb)
	assert.Equal(t, "SAVED1", lb.Code())

	h.Inbox() <- GetLobby{Code: "SAVED1", Reply: reply}
	assert.Same(t, lb, <-reply)

	h.Inbox() <- GetLobby{Code: "NOPE00", Reply: reply}
	assert.Nil(t, <-reply)
	h.Inbox() <- GetLobby{Code: "BROKEN", Reply: reply}
	assert.Nil(t, <-reply)

	codes := make(chan []string, 1)
	h.Inbox() <- ListLobbies{Reply: codes}
	assert.Equal(t, []string{"SAVED1"}, <-codes)
	assert.Equal(t, []string{"SAVED1", "NOPE00", "BROKEN"}, asked, "an open lobby is not looked up again")
}
