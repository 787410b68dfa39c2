package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/illarion/varicrypt/internal/relay"
	"github.com/illarion/varicrypt/internal/storage"
)

// DefaultAddr is where serve listens unless told otherwise.
const DefaultAddr = "127.0.0.1:8080"

const (
	purgeInterval   = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// Serve exposes the local store over HTTP until ctx is done.
func Serve(ctx context.Context, env *Env, addr string) error {
	store, err := storage.Open(env.Config.StorePath, env.Config.TTL)
	if err != nil {
		return err
	}
	defer store.Close()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return serve(ctx, env, store, ln, purgeInterval)
}

// serve runs until ctx is done or the server fails. The purge loop has
// stopped by the time it returns.
func serve(ctx context.Context, env *Env, store *storage.Storage, ln net.Listener, interval time.Duration) error {
	srv := &http.Server{
		Handler:           relay.NewHandler(store, env.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	storeID, err := store.GetOrCreateStoreID()
	if err != nil {
		ln.Close()
		return err
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		purgeLoop(purgeCtx, env, store, interval)
	}()
	defer func() {
		stopPurge()
		wg.Wait()
	}()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	fmt.Fprintf(env.Stdout, "Serving store %s (%s) on http://%s\n", storeID, store.Path(), ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func purgeLoop(ctx context.Context, env *Env, store *storage.Storage, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				env.Logger.Warn("purge failed", "error", err)
				continue
			}
			if n > 0 {
				env.Logger.Info("purged expired messages", "count", n)
			}
		}
	}
}
