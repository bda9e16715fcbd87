package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The1Divider/Bathbot/domain"
)

func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	require.NoError(t, r.Create("chan-1", "owner"))
	assert.ErrorIs(t, r.Create("chan-1", "someone-else"), domain.ErrSessionExists)

	// Other channels are independent.
	assert.NoError(t, r.Create("chan-2", "owner"))
}

func TestRegistryConcurrentCreate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	const racers = 32
	created := make(chan error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created <- r.Create("chan-1", "owner")
		}()
	}
	wg.Wait()
	close(created)

	wins := 0
	for err := range created {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrSessionExists)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent create should win")
}

func TestRegistryMutateSetup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Create("chan-1", "owner"))

	err := r.MutateSetup("chan-1", "owner", func(s *Setup) {
		s.Difficulty = domain.DifficultyHard
		s.Included = domain.TagWeeb
	})
	require.NoError(t, err)

	setup, ok := r.PeekSetup("chan-1")
	require.True(t, ok)
	assert.Equal(t, domain.DifficultyHard, setup.Difficulty)
	assert.Equal(t, domain.TagWeeb, setup.Included)

	assert.ErrorIs(t, r.MutateSetup("chan-1", "intruder", func(s *Setup) {}), domain.ErrNotSetupOwner)
	assert.ErrorIs(t, r.MutateSetup("missing", "owner", func(s *Setup) {}), domain.ErrNoSetup)
}

func TestRegistryCancelSetup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Create("chan-1", "owner"))

	assert.ErrorIs(t, r.CancelSetup("chan-1", "intruder"), domain.ErrNotSetupOwner)

	require.NoError(t, r.CancelSetup("chan-1", "owner"))
	assert.ErrorIs(t, r.CancelSetup("chan-1", "owner"), domain.ErrNoSetup)

	// The channel is free again after a cancel.
	assert.NoError(t, r.Create("chan-1", "owner"))
}

func TestRegistryBeginRunning(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Create("chan-1", "owner"))

	handle := newHandle(time.Second)
	err := r.BeginRunning("chan-1", "owner", func(setup Setup) (*Handle, error) {
		assert.Equal(t, "owner", setup.Owner)
		return handle, nil
	})
	require.NoError(t, err)

	got, err := r.RunningHandle("chan-1")
	require.NoError(t, err)
	assert.Same(t, handle, got)

	// Once running, the setup surface is gone.
	assert.ErrorIs(t, r.MutateSetup("chan-1", "owner", func(s *Setup) {}), domain.ErrNoSetup)
	_, ok := r.PeekSetup("chan-1")
	assert.False(t, ok)

	// And a second begin cannot race the first.
	assert.ErrorIs(t, r.BeginRunning("chan-1", "owner", func(setup Setup) (*Handle, error) {
		t.Fatal("start should not be invoked on a running session")
		return nil, nil
	}), domain.ErrNoSetup)
}

func TestRegistryBeginRunningFailureFreesChannel(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Create("chan-1", "owner"))

	startErr := errors.New("no items")
	err := r.BeginRunning("chan-1", "owner", func(setup Setup) (*Handle, error) {
		return nil, startErr
	})
	assert.ErrorIs(t, err, startErr)

	_, err = r.RunningHandle("chan-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveLoop)

	// A failed begin releases the channel for a fresh session.
	assert.NoError(t, r.Create("chan-1", "owner"))
}

func TestRegistryRemoveRunning(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Create("chan-1", "owner"))

	handle := newHandle(time.Second)
	require.NoError(t, r.BeginRunning("chan-1", "owner", func(setup Setup) (*Handle, error) {
		return handle, nil
	}))

	// A stale handle from some earlier loop must not evict the session.
	r.RemoveRunning("chan-1", newHandle(time.Second))
	_, err := r.RunningHandle("chan-1")
	assert.NoError(t, err)

	r.RemoveRunning("chan-1", handle)
	_, err = r.RunningHandle("chan-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveLoop)

	// Removal is idempotent and the channel is free again.
	r.RemoveRunning("chan-1", handle)
	assert.NoError(t, r.Create("chan-1", "owner"))
}
