package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() engine.GameState {
	return engine.GameState{
		NextID: 3,
		Participants: []*engine.Participant{
			{
				ID:     1,
				Name:   "Ana",
				Budget: decimal.RequireFromString("62.5"),
				Inventory: []engine.Item{
					{Name: "Pirlo", Position: engine.PosCM, Tier: "gold", Price: decimal.NewFromInt(30)},
				},
				Roster: map[engine.SlotID]int{engine.SlotCM1: 0},
			},
			{ID: 2, Name: "Bo", Budget: decimal.NewFromInt(100), Inventory: []engine.Item{}, Roster: map[engine.SlotID]int{}},
		},
	}
}

func exerciseGameStore(t *testing.T, blob Blob) {
	t.Helper()
	ctx := context.Background()
	gs := NewGameStore(blob, LobbyKey("ABC123"))

	got, err := gs.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "nothing saved yet")

	exists, err := gs.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	want := sampleState()
	require.NoError(t, gs.Save(ctx, want))

	exists, err = gs.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err = gs.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.NextID, got.NextID)
	require.Len(t, got.Participants, 2)
	assert.True(t, got.Participants[0].Budget.Equal(want.Participants[0].Budget))
	assert.Equal(t, want.Participants[0].Roster, got.Participants[0].Roster)
	assert.Equal(t, "Pirlo", got.Participants[0].Inventory[0].Name)
}

func TestGameStore_File(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir())
	require.NoError(t, err)
	exerciseGameStore(t, blob)
}

func TestGameStore_Memory(t *testing.T) {
	exerciseGameStore(t, NewMemoryBlob())
}

func TestFileBlob_RejectsEscapingKeys(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../outside.json", "/etc/passwd", ""} {
		require.Error(t, blob.Put(context.Background(), key, []byte("{}")), key)
	}
}

func TestFileBlob_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	blob, err := NewFileBlob(dir)
	require.NoError(t, err)
	require.NoError(t, blob.Put(context.Background(), "lobbies/X.json", []byte("{}")))

	entries, err := os.ReadDir(filepath.Join(dir, "lobbies"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "X.json", entries[0].Name())
}

func TestGameStore_CorruptDocument(t *testing.T) {
	blob := NewMemoryBlob()
	require.NoError(t, blob.Put(context.Background(), "k", []byte("not json")))

	_, err := NewGameStore(blob, "k").Load(context.Background())
	require.Error(t, err)
}

// fakeS3 understands path style GET and PUT, which is all S3Blob uses.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestGameStore_S3(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	blob, err := NewS3Blob(context.Background(), S3Config{
		Bucket:          "auction",
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Prefix:          "dev",
	})
	require.NoError(t, err)
	exerciseGameStore(t, blob)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.objects, "auction/dev/lobbies/ABC123.json")
}

func TestPostgresBlob(t *testing.T) {
	url := os.Getenv("AUCTION_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("AUCTION_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	blob, err := NewPostgresBlob(ctx, pool, nil)
	require.NoError(t, err)
	_, _ = pool.Exec(ctx, `DELETE FROM auction_state WHERE key = $1`, LobbyKey("ABC123"))
	exerciseGameStore(t, blob)
}
