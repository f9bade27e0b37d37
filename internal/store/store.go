// Package store persists auction game state as whole JSON documents in a
// pluggable blob backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
)

var ErrNotFound = errors.New("blob not found")

// Blob is a key/value store of opaque documents. Writes replace the whole
// value.
type Blob interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// GameStore adapts a Blob to engine.Store for one key.
type GameStore struct {
	blob Blob
	key  string
}

func NewGameStore(blob Blob, key string) *GameStore {
	return &GameStore{blob: blob, key: key}
}

func (s *GameStore) Load(ctx context.Context) (*engine.GameState, error) {
	raw, err := s.blob.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var st engine.GameState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return &st, nil
}

// Exists reports whether a document has been saved under the store's key.
func (s *GameStore) Exists(ctx context.Context) (bool, error) {
	_, err := s.blob.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", s.key, err)
	}
	return true, nil
}

func (s *GameStore) Save(ctx context.Context, st engine.GameState) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.blob.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// LobbyKey is where a lobby's state lives in any backend.
func LobbyKey(code string) string {
	return "lobbies/" + code + ".json"
}
