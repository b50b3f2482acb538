//go:build integration
// +build integration

package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DMarby/blobcrop/internal/cache"
	"github.com/DMarby/blobcrop/internal/cache/redis"
	"github.com/DMarby/blobcrop/internal/logger"
	"github.com/DMarby/blobcrop/internal/tracing/test"
	"github.com/mediocregopher/radix/v4"
	"go.uber.org/zap"
)

const (
	address  = "127.0.0.1:6380"
	poolSize = 10
)

func TestRedis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	tracer := test.Tracer(log)

	provider, err := redis.New(ctx, tracer, address, poolSize, 0)
	if err != nil {
		t.Fatal(err)
	}

	expiring, err := redis.New(ctx, tracer, address, poolSize, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer expiring.Shutdown()

	cfg := radix.PoolConfig{}
	client, err := cfg.New(ctx, "tcp", address)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	t.Run("get item", func(t *testing.T) {
		if err := provider.Set(ctx, "foo", []byte("bar")); err != nil {
			t.Fatal(err)
		}

		data, err := provider.Get(ctx, "foo")
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != "bar" {
			t.Fatal("wrong data")
		}
	})

	t.Run("keys are prefixed", func(t *testing.T) {
		var data []byte
		if err := client.Do(ctx, radix.Cmd(&data, "GET", "blobcrop:foo")); err != nil {
			t.Fatal(err)
		}

		if string(data) != "bar" {
			t.Fatal("wrong data")
		}
	})

	t.Run("get nonexistant item", func(t *testing.T) {
		_, err := provider.Get(ctx, "notfound")
		if !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("wrong error %v", err)
		}
	})

	t.Run("items expire", func(t *testing.T) {
		if err := expiring.Set(ctx, "expiring", []byte("bar")); err != nil {
			t.Fatal(err)
		}

		time.Sleep(200 * time.Millisecond)

		if _, err := expiring.Get(ctx, "expiring"); !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("wrong error %v", err)
		}
	})

	t.Run("get error", func(t *testing.T) {
		provider.Shutdown()
		_, err := provider.Get(ctx, "notfound")
		if err == nil {
			t.Fatal("no error")
		}
	})

	// Clean up
	if err := client.Do(ctx, radix.Cmd(nil, "FLUSHALL")); err != nil {
		t.Error(err)
	}
}

func TestNew(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := redis.New(ctx, nil, "", 10, 0)
	if err == nil {
		t.Fatal("no error")
	}
}
