package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestStore_AddAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Add(ctx, "calc", map[string]string{"expression": "2+2"}, "4")
	require.NoError(t, err)
	_, err = s.Add(ctx, "ris", map[string]string{"a": "10", "b": "5"}, "2")
	require.NoError(t, err)
	_, err = s.Add(ctx, "solve", nil, "[-2, 2]")
	require.NoError(t, err)

	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err, "entry IDs are UUIDs")

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"calc", "ris", "solve"}, []string{entries[0].Operation, entries[1].Operation, entries[2].Operation})
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, "10", entries[1].Inputs["a"])
	assert.NotNil(t, entries[2].Inputs)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.Add(ctx, "calc", nil, "1")
		require.NoError(t, err)
	}
	require.NoError(t, s.Clear(ctx))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Add(ctx, "calc", nil, "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	_, err = s.Add(ctx, "calc", map[string]string{"expression": "pi"}, "3.141592653589793")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "3.141592653589793", entries[0].Result)
}

func TestExportJSON(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.Add(ctx, "calc", map[string]string{"expression": "1+1"}, "2")
	require.NoError(t, err)
	entries, err := s.List(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, entries))
	assert.Contains(t, buf.String(), "\n  {")

	var back []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, entries, back)

	buf.Reset()
	require.NoError(t, ExportJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.Add(ctx, "ris", map[string]string{"b": "5", "a": "10"}, "2")
	require.NoError(t, err)
	entries, err := s.List(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, entries))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"timestamp", "operation", "inputs", "result"}, rows[0])
	assert.Equal(t, "2026-03-01T12:00:01Z", rows[1][0])
	assert.Equal(t, "ris", rows[1][1])
	assert.Equal(t, `{"a":"10","b":"5"}`, rows[1][2])
	assert.Equal(t, "2", rows[1][3])
}
