//go:build !windows

package app

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithShutdown_CancelledBySignal(t *testing.T) {
	ctx := contextWithShutdown(context.Background(), syscall.SIGUSR1)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled after the signal")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestContextWithShutdown_FollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := contextWithShutdown(parent, syscall.SIGUSR2)
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled with its parent")
	}
}
