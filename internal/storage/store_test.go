package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportkit/dashboard/internal/schema"
)

func validState() schema.DashboardState {
	s := schema.Empty()
	s.Config.Environment = schema.Env(schema.EnvProd)
	s.TestCases = schema.TestCaseData{
		Total:  schema.Int(100),
		Passed: schema.Int(60),
		Failed: schema.Int(30),
	}
	s.Remarks.Overall = "nightly run"
	return s
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	want := validState()
	require.NoError(t, store.Save(ctx, "release-42", want))

	got, err := store.Load(ctx, "release-42")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLastWriterWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := validState()
	require.NoError(t, store.Save(ctx, "x", first))

	second := schema.Empty()
	second.Remarks.Overall = "rewritten"
	require.NoError(t, store.Save(ctx, "x", second))

	got, err := store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryStoreListAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, store.Save(ctx, "a", validState()))
	require.NoError(t, store.Save(ctx, "b", schema.Empty()))

	all, err = store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := schema.Empty()
			s.TestCases.Passed = schema.Int(n)
			_ = store.Save(ctx, "contended", s)
			_, _ = store.Load(ctx, "contended")
		}(i)
	}
	wg.Wait()

	got, err := store.Load(ctx, "contended")
	require.NoError(t, err)
	require.NotNil(t, got.TestCases.Passed)
	assert.GreaterOrEqual(t, *got.TestCases.Passed, 0)
	assert.Less(t, *got.TestCases.Passed, 32)
}

func TestGatewayRejectsInvalidState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	gw := NewGateway(store)

	bad := schema.Empty()
	bad.TestCases = schema.TestCaseData{
		Total:  schema.Int(10),
		Passed: schema.Int(6),
		Failed: schema.Int(6),
	}

	err := gw.Save(ctx, "bad", bad)
	assert.ErrorIs(t, err, ErrInvalidState)

	// The rejected payload never reached the backend.
	_, err = store.Load(ctx, "bad")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGatewayAcceptsPartialState(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway(NewMemoryStore())

	partial := schema.Empty()
	partial.TestCases.Passed = schema.Int(3)
	require.NoError(t, gw.Save(ctx, "partial", partial))

	got, err := gw.Load(ctx, "partial")
	require.NoError(t, err)
	assert.Equal(t, partial, got)
}

func TestGatewayPassesThroughNotFound(t *testing.T) {
	gw := NewGateway(NewMemoryStore())
	_, err := gw.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
