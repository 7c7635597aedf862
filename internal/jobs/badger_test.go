package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T, dir string) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_SaveGetList(t *testing.T) {
	s := openTestStore(t, "")
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	second := Job{ID: "b", Kind: KindOptimize, State: StateQueued, Payload: json.RawMessage(`{"demand":[]}`), CreatedAt: base.Add(time.Minute)}
	first := Job{ID: "a", Kind: KindParseDrawing, State: StateSucceeded, Result: json.RawMessage(`[1,2]`), CreatedAt: base}
	require.NoError(t, s.Save(ctx, second))
	require.NoError(t, s.Save(ctx, first))

	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, KindOptimize, got.Kind)
	assert.JSONEq(t, `{"demand":[]}`, string(got.Payload))
	assert.True(t, got.CreatedAt.Equal(second.CreatedAt))

	second.State = StateRunning
	require.NoError(t, s.Save(ctx, second))
	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, got.State)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID, "oldest first")
	assert.Equal(t, "b", all[1].ID)

	var nums []int
	require.NoError(t, all[0].DecodeResult(&nums))
	assert.Equal(t, []int{1, 2}, nums)
}

func TestBadgerStore_NotFound(t *testing.T) {
	s := openTestStore(t, "")

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadgerStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, Job{ID: "keep", Kind: KindRecalculateWeights, State: StateSucceeded, CreatedAt: time.Now().UTC()}))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, dir)
	got, err := reopened.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, got.State)
}

func TestRunner_WithBadgerStore(t *testing.T) {
	s := openTestStore(t, "")
	r := NewRunner(s, 2, 4, zaptest.NewLogger(t))
	r.Handle(kindEcho, echoHandler)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	ctx := context.Background()
	job, err := r.Submit(ctx, kindEcho, map[string]string{"profile": "HEA200"})
	require.NoError(t, err)

	done, err := r.Wait(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, done.State)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, job.ID, all[0].ID)
}
