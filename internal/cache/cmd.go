package cache

import (
	"fmt"
	"log/slog"
)

// ClearCacheCmd represents the cache clear subcommand
type ClearCacheCmd struct{}

func (c *ClearCacheCmd) Run(store Store) error {
	slog.Info("Clearing response cache")

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// PruneCacheCmd represents the cache prune subcommand
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run(store Store) error {
	pruner, ok := store.(Pruner)
	if !ok {
		slog.Info("Cache backend expires entries on its own, nothing to prune")
		return nil
	}

	removed, err := pruner.Prune()
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	slog.Info("Cache pruned", "entries_removed", removed)
	return nil
}
