package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an in-memory store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesTables(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"session_memory", "advisory_history"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStore_RememberRecall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Recall(ctx, domain.KindWeather)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remember(ctx, domain.KindWeather, "London"))
	require.NoError(t, s.Remember(ctx, domain.KindWeather, "Tokyo"))
	require.NoError(t, s.Remember(ctx, domain.KindCrop, "Kenya"))

	q, ok, err := s.Recall(ctx, domain.KindWeather)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Tokyo", q)

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM session_memory`).Scan(&rows))
	assert.Equal(t, 2, rows, "one row per kind")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "advisory.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Remember(ctx, domain.KindSoil, "Brazil"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	q, ok, err := s.Recall(ctx, domain.KindSoil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Brazil", q)
}

func TestStore_History(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	records := []domain.Resolution{
		{RequestID: "r1", Kind: domain.KindWeather, Query: "London", Source: domain.SourceLive, Payload: json.RawMessage(`{"location_label":"London"}`), ResolvedAt: base},
		{RequestID: "r2", Kind: domain.KindSoil, Query: "Kenya", Source: domain.SourceReference, ResolvedKey: "Kenya", Payload: json.RawMessage(`{}`), ResolvedAt: base.Add(time.Minute)},
		{RequestID: "r3", Kind: domain.KindWeather, Query: "Atlantis", Source: domain.SourceDefault, ResolvedKey: "Hyderabad", Payload: json.RawMessage(`{"location_label":"Hyderabad"}`), ResolvedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		require.NoError(t, s.Record(ctx, r))
	}

	got, err := s.History(ctx, domain.KindWeather, 10)
	require.NoError(t, err)

	want := []domain.Resolution{records[2], records[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	got, err = s.History(ctx, domain.KindWeather, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r3", got[0].RequestID)

	got, err = s.History(ctx, domain.KindCrop, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Name(t *testing.T) {
	assert.Equal(t, "sqlite", newTestStore(t).Name())
}
