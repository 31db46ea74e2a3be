package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/savelydental/Savely/internal/application/services"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRunLatest_SingleFetch(t *testing.T) {
	guard := services.NewFetchGuard()

	got, err := services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (string, error) {
		return "clinics", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "clinics", got)
	assert.Zero(t, guard.InFlight())
}

func TestRunLatest_OlderFetchIsSuperseded(t *testing.T) {
	defer goleak.VerifyNone(t)

	guard := services.NewFetchGuard()
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	var oldResult string
	var oldErr error
	var oldCtxErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		oldResult, oldErr = services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (string, error) {
			close(started)
			<-release
			oldCtxErr = ctx.Err()
			return "stale", nil
		})
	}()

	<-started
	newResult, newErr := services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	close(release)
	wg.Wait()

	require.NoError(t, newErr)
	assert.Equal(t, "fresh", newResult)

	assert.ErrorIs(t, oldErr, apperrors.ErrSuperseded)
	assert.Empty(t, oldResult)
	assert.ErrorIs(t, oldCtxErr, context.Canceled, "the superseded fetch is cancelled")
	assert.Zero(t, guard.InFlight())
}

func TestRunLatest_StaleCompletionAfterNewerFinished(t *testing.T) {
	defer goleak.VerifyNone(t)

	guard := services.NewFetchGuard()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- err
	}()
	<-started

	_, err := services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (int, error) {
		return 2, nil
	})
	require.NoError(t, err)

	// A third fetch starts after the second finished; the first must still lose.
	third := make(chan struct{})
	go func() {
		_, _ = services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (int, error) {
			close(third)
			<-ctx.Done()
			return 3, ctx.Err()
		})
	}()
	<-third

	close(release)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, apperrors.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("first fetch did not return")
	}

	_, _ = services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) (int, error) { return 4, nil })
}

func TestRunLatest_IndependentKeys(t *testing.T) {
	guard := services.NewFetchGuard()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := services.RunLatest(context.Background(), guard, "tab-a", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, ctx.Err()
		})
		done <- err
	}()
	<-started

	_, err := services.RunLatest(context.Background(), guard, "tab-b", func(ctx context.Context) (int, error) {
		return 2, nil
	})
	require.NoError(t, err)

	close(release)
	assert.NoError(t, <-done)
}

func TestRunLatest_PropagatesErrors(t *testing.T) {
	guard := services.NewFetchGuard()
	boom := errors.New("boom")

	_, err := services.RunLatest(context.Background(), guard, "view", func(ctx context.Context) ([]string, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}
