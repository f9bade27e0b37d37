package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
)

//go:embed players.json
var seedPlayers []byte

// MemorySource serves a fixed player list. It backs offline mode.
type MemorySource struct {
	players []Player
}

func NewMemorySource(players []Player) *MemorySource {
	ps := slices.Clone(players)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return &MemorySource{players: ps}
}

// Seed returns the bundled player list.
func Seed() ([]Player, error) {
	return decodePlayers(seedPlayers)
}

// LoadFile reads a player list in the same JSON shape as the bundled seed.
func LoadFile(path string) ([]Player, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodePlayers(raw)
}

func decodePlayers(raw []byte) ([]Player, error) {
	var ps []Player
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	for i := range ps {
		if ps[i].ID == 0 {
			ps[i].ID = uint(i + 1)
		}
	}
	return ps, nil
}

func (m *MemorySource) match(q Query) []Player {
	positions := Positions(q.Position)
	out := []Player{}
	for _, p := range m.players {
		if active(q.Era) && p.Era != q.Era {
			continue
		}
		if active(q.League) && p.League != q.League {
			continue
		}
		if active(q.Tier) && p.Tier != q.Tier {
			continue
		}
		if positions != nil && !slices.Contains(positions, p.Position) {
			continue
		}
		if len(q.Clubs) > 0 && !slices.Contains(q.Clubs, p.Club) {
			continue
		}
		if slices.Contains(q.Exclude, p.Name) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *MemorySource) Count(_ context.Context, q Query) (int, error) {
	return len(m.match(q)), nil
}

func (m *MemorySource) Pick(_ context.Context, q Query, i int) (Player, error) {
	ps := m.match(q)
	if i < 0 || i >= len(ps) {
		return Player{}, ErrNoMatch
	}
	return ps[i], nil
}

func (m *MemorySource) List(_ context.Context, q Query) ([]Player, error) {
	return m.match(q), nil
}

func (m *MemorySource) Clubs(context.Context) ([]string, error) {
	seen := map[string]bool{}
	clubs := []string{}
	for _, p := range m.players {
		if p.Club == "" || seen[p.Club] {
			continue
		}
		seen[p.Club] = true
		clubs = append(clubs, p.Club)
	}
	sort.Strings(clubs)
	return clubs, nil
}
