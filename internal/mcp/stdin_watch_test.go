package mcp_test

import (
	"context"
	"testing"
	"time"

	mcpserver "agenteval/internal/mcp"
)

func TestWatchParent_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mcpserver.WatchParent(ctx, cancel)

	cancel()

	// Verify the goroutine doesn't panic or block after context cancel.
	time.Sleep(50 * time.Millisecond)
}

func TestWatchParent_DoesNotCancelWhileParentAlive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	select {
	case <-ctx.Done():
		t.Fatal("watchdog canceled context while parent is alive")
	case <-time.After(100 * time.Millisecond):
	}
}
