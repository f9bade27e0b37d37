// Package catalog is the pool of players that can be put up for auction.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoMatch = errors.New("no players found matching criteria")

type Player struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"uniqueIndex;not null" json:"name"`
	Club        string          `gorm:"index" json:"club"`
	Era         string          `gorm:"index" json:"era"`
	League      string          `gorm:"index" json:"league"`
	Position    string          `gorm:"type:varchar(8);index" json:"position"`
	Age         int             `json:"age"`
	MarketValue decimal.Decimal `gorm:"type:numeric(10,1);not null" json:"market_value"`
	Tier        string          `gorm:"type:varchar(4);index" json:"tier"`
	PlayStyle   string          `json:"play_style,omitempty"`
}

// Query narrows the catalog. Empty fields and "all" match everything.
type Query struct {
	Era      string
	League   string
	Position string // GK, DEF, MID, FWD or a concrete position
	Tier     string
	Clubs    []string
	Exclude  []string
}

var positionGroups = map[string][]string{
	"GK":  {"GK"},
	"DEF": {"CB", "LB", "RB", "LWB", "RWB"},
	"MID": {"CDM", "CM", "CAM", "RM", "LM"},
	"FWD": {"ST", "CF", "RW", "LW", "SS"},
}

// Positions expands a position filter into concrete positions. nil means no
// filter.
func Positions(filter string) []string {
	f := strings.ToUpper(strings.TrimSpace(filter))
	if f == "" || f == "ALL" {
		return nil
	}
	if group, ok := positionGroups[f]; ok {
		return group
	}
	return []string{f}
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "all")
}

type Source interface {
	Count(ctx context.Context, q Query) (int, error)
	// Pick returns the i-th matching player in id order.
	Pick(ctx context.Context, q Query, i int) (Player, error)
	List(ctx context.Context, q Query) ([]Player, error)
	Clubs(ctx context.Context) ([]string, error)
}

type Catalog struct {
	src  Source
	intn func(n int) int
}

func New(src Source) *Catalog {
	return &Catalog{src: src, intn: rand.IntN}
}

// Random picks one matching player uniformly and reports how many matched,
// the picked one included.
func (c *Catalog) Random(ctx context.Context, q Query) (Player, int, error) {
	n, err := c.src.Count(ctx, q)
	if err != nil {
		return Player{}, 0, fmt.Errorf("count players: %w", err)
	}
	if n == 0 {
		return Player{}, 0, ErrNoMatch
	}
	p, err := c.src.Pick(ctx, q, c.intn(n))
	if err != nil {
		return Player{}, 0, fmt.Errorf("pick player: %w", err)
	}
	return p, n, nil
}

func (c *Catalog) List(ctx context.Context, q Query) ([]Player, error) {
	return c.src.List(ctx, q)
}

func (c *Catalog) Count(ctx context.Context, q Query) (int, error) {
	return c.src.Count(ctx, q)
}

func (c *Catalog) Clubs(ctx context.Context) ([]string, error) {
	return c.src.Clubs(ctx)
}
