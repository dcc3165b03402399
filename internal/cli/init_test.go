package cli

import (
	"context"
	"io"
	"log/slog"
	"syscall"
	"testing"
	"time"
)

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(logger, time.Second, func(shutdownCtx context.Context) {
		if _, ok := shutdownCtx.Deadline(); !ok {
			t.Error("cleanup context has no deadline")
		}
		close(cleaned)
	})

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("sending SIGTERM: %v", err)
	}

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup not invoked after SIGTERM")
	}

	finished := make(chan struct{})
	go func() {
		WaitForShutdown(ctx, done)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}
}
