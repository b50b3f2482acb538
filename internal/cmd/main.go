package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DMarby/blobcrop/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Http timeouts
const (
	ReadTimeout    = 30 * time.Second // uploads are read within this
	WriteTimeout   = 2 * time.Minute
	HandlerTimeout = 90 * time.Second
)

// WaitForInterrupt waits for an interrupt
func WaitForInterrupt(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		return fmt.Errorf("received signal %s", sig)
	case <-ctx.Done():
		return errors.New("canceled")
	}
}

// Serve runs the http server until it fails, ctx is done, or an interrupt is received, then shuts it down
func Serve(ctx context.Context, log *logger.Logger, server *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("http server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := WaitForInterrupt(ctx)
		log.Infof("shutting down: %s", err)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
