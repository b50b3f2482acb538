package cmd_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DMarby/blobcrop/internal/cmd"
	"github.com/DMarby/blobcrop/internal/logger"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	t.Run("shuts down when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
		if err := cmd.Serve(ctx, log, server); err != nil {
			t.Errorf("unexpected error %s", err)
		}
	})

	t.Run("returns listen errors", func(t *testing.T) {
		server := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}
		if err := cmd.Serve(context.Background(), log, server); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestWaitForInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cmd.WaitForInterrupt(ctx); err == nil || err.Error() != "canceled" {
		t.Errorf("wrong error %v", err)
	}
}
