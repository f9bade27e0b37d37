package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DoyleJ11/football-auction-backend/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LobbyRoundTrip(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /lobbies", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"code":"ABC123"}`)
	})
	mux.HandleFunc("POST /lobbies/ABC123/commands", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"code":"ABC123","version":1,"num_clients":0,"state":{"participants":[{"id":1,"name":"Ana","budget":"100"}],"players_shown":0,"formation":[]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	code, err := c.CreateLobby(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", code)

	lb, err := c.Send(ctx, code, types.ClientMessage{Type: "Register", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, 1, lb.Version)
	require.Len(t, lb.State.Participants, 1)
	assert.True(t, lb.State.Participants[0].Budget.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Register", gotBody["type"])
	assert.Equal(t, "Ana", gotBody["name"])
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"no bids placed: players must place bids first","code":"no_bids"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Send(context.Background(), "ABC123", types.ClientMessage{Type: "SellNow"})
	require.Error(t, err)
	assert.True(t, IsCode(err, "no_bids"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "players must place bids first")
}

func TestClient_RandomPlayerQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/players/random", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "legend", q.Get("era"))
		assert.Empty(t, q.Get("league"))
		assert.Equal(t, []string{"Roma", "Juventus"}, q["club"])
		assert.Equal(t, []string{"Totti"}, q["exclude"])
		_, _ = io.WriteString(w, `{"player":{"id":1,"name":"Buffon","market_value":"95"},"remaining":4}`)
	}))
	defer srv.Close()

	p, remaining, err := NewClient(srv.URL).RandomPlayer(context.Background(), PlayerQuery{
		Era:     "legend",
		League:  "  ",
		Clubs:   []string{"Roma", "Juventus"},
		Exclude: []string{"Totti"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Buffon", p.Name)
	assert.Equal(t, 4, remaining)
}

func TestClient_NotFoundMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"no players found matching criteria"}`)
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).RandomPlayer(context.Background(), PlayerQuery{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "no players found matching criteria", apiErr.Message)
	assert.Empty(t, apiErr.Code)
}

func TestClient_DeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).DeleteLobby(context.Background(), "ABC123"))
}
