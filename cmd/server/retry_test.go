package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/raja-mantri/internal/errors"
	"github.com/wfunc/raja-mantri/internal/game"
	"go.uber.org/zap"
)

func TestOpenWithRetry_RecoversAfterConnectErrors(t *testing.T) {
	calls := 0
	store, err := openWithRetry(context.Background(), 3, time.Millisecond, zap.NewNop(), func() (game.Store, error) {
		calls++
		if calls < 3 {
			return nil, errors.New(errors.ErrDatabaseConnect, "refused")
		}
		return game.NewMemoryStore(), nil
	})

	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Equal(t, 3, calls)
}

func TestOpenWithRetry_StopsOnConfigError(t *testing.T) {
	calls := 0
	_, err := openWithRetry(context.Background(), 5, time.Millisecond, zap.NewNop(), func() (game.Store, error) {
		calls++
		return nil, errors.New(errors.ErrConfigLoad, "bad driver")
	})

	assert.True(t, errors.Is(err, errors.ErrConfigLoad))
	assert.Equal(t, 1, calls)
}

func TestOpenWithRetry_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	_, err := openWithRetry(context.Background(), 3, time.Millisecond, zap.NewNop(), func() (game.Store, error) {
		calls++
		return nil, errors.New(errors.ErrDatabaseConnect, "refused")
	})

	assert.True(t, errors.Is(err, errors.ErrDatabaseConnect))
	assert.Equal(t, 3, calls)
}

func TestOpenWithRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := openWithRetry(ctx, 5, time.Hour, zap.NewNop(), func() (game.Store, error) {
		calls++
		return nil, errors.New(errors.ErrDatabaseConnect, "refused")
	})

	assert.True(t, errors.Is(err, errors.ErrDatabaseConnect))
	assert.Equal(t, 1, calls)
}
