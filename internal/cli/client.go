// Package cli is the HTTP client behind auctionctl.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DoyleJ11/football-auction-backend/internal/catalog"
	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/DoyleJ11/football-auction-backend/internal/types"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non 2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsCode reports whether err is an APIError carrying the given engine code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Lobby struct {
	Code       string      `json:"code"`
	Version    int         `json:"version"`
	NumClients int         `json:"num_clients"`
	State      engine.View `json:"state"`
}

type PlayerQuery struct {
	Era      string
	League   string
	Position string
	Tier     string
	Clubs    []string
	Exclude  []string
}

func (q PlayerQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s = strings.TrimSpace(s); s != "" {
			v.Set(k, s)
		}
	}
	set("era", q.Era)
	set("league", q.League)
	set("position", q.Position)
	set("tier", q.Tier)
	for _, c := range q.Clubs {
		v.Add("club", c)
	}
	for _, n := range q.Exclude {
		v.Add("exclude", n)
	}
	return v
}

func (c *Client) CreateLobby(ctx context.Context) (string, error) {
	var out struct {
		Code string `json:"code"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/lobbies", nil, &out)
	return out.Code, err
}

func (c *Client) ListLobbies(ctx context.Context) ([]string, error) {
	var out struct {
		Lobbies []string `json:"lobbies"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/lobbies", nil, &out)
	return out.Lobbies, err
}

func (c *Client) GetLobby(ctx context.Context, code string) (Lobby, error) {
	var out Lobby
	err := c.jsonRequest(ctx, http.MethodGet, "/lobbies/"+url.PathEscape(code), nil, &out)
	return out, err
}

func (c *Client) DeleteLobby(ctx context.Context, code string) error {
	return c.jsonRequest(ctx, http.MethodDelete, "/lobbies/"+url.PathEscape(code), nil, nil)
}

// Send applies one command to a lobby and returns the state after it.
func (c *Client) Send(ctx context.Context, code string, msg types.ClientMessage) (Lobby, error) {
	var out Lobby
	err := c.jsonRequest(ctx, http.MethodPost, "/lobbies/"+url.PathEscape(code)+"/commands", msg, &out)
	return out, err
}

func (c *Client) RandomPlayer(ctx context.Context, q PlayerQuery) (catalog.Player, int, error) {
	var out struct {
		Player    catalog.Player `json:"player"`
		Remaining int            `json:"remaining"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, withQuery("/api/players/random", q.values()), nil, &out)
	return out.Player, out.Remaining, err
}

func (c *Client) ListPlayers(ctx context.Context, q PlayerQuery) ([]catalog.Player, error) {
	var out []catalog.Player
	err := c.jsonRequest(ctx, http.MethodGet, withQuery("/api/players", q.values()), nil, &out)
	return out, err
}

func (c *Client) CountPlayers(ctx context.Context, q PlayerQuery) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, withQuery("/api/players/count", q.values()), nil, &out)
	return out.Count, err
}

func (c *Client) Clubs(ctx context.Context) ([]string, error) {
	var out []string
	err := c.jsonRequest(ctx, http.MethodGet, "/api/meta/clubs", nil, &out)
	return out, err
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(status int, raw []byte) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	apiErr := &APIError{Status: status, Message: strings.TrimSpace(string(raw))}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Code = body.Code
		switch {
		case body.Error != "":
			apiErr.Message = body.Error
		case body.Message != "":
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
