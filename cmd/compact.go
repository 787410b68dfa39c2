package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/varicrypt/internal/storage"
)

// Compact purges expired messages and compacts the local store to reclaim
// unused space
func Compact(ctx context.Context, env *Env) error {
	path := env.Config.StorePath
	store, err := storage.OpenExisting(path, env.Config.TTL)
	if err != nil {
		return err
	}
	defer store.Close()

	purged, err := store.Purge(ctx)
	if err != nil {
		return err
	}

	// Get file size before
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	sizeBefore := info.Size()

	if err := store.Compact(); err != nil {
		return err
	}

	// Get file size after
	info, err = os.Stat(path)
	if err != nil {
		return err
	}
	sizeAfter := info.Size()

	remaining, err := store.Count()
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Purged %d expired, %d pending\n", purged, remaining)
	fmt.Fprintf(env.Stdout, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}
