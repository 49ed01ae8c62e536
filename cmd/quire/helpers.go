package main

import (
	"fmt"
	"path/filepath"

	"log/slog"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/adapters/file"
	"github.com/aretw0/quire/pkg/adapters/memory"
	redisStore "github.com/aretw0/quire/pkg/adapters/redis"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/spf13/cobra"
)

// newLogger builds a stderr logger honoring the persistent --log-level flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// newSnapshotStore builds the snapshot store selected by the --store flags.
// Commands that use it must register the flags via addStoreFlags.
func newSnapshotStore(cmd *cobra.Command) (ports.SnapshotStore, error) {
	kind, _ := cmd.Flags().GetString("store")
	switch kind {
	case "file":
		path, _ := cmd.Flags().GetString("store-path")
		return file.New(path), nil
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		return redisStore.New(addr, password, db), nil
	default:
		return nil, fmt.Errorf("unknown store %q, supported: file, memory, redis", kind)
	}
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "file", "Snapshot store backend: file, memory, or redis")
	cmd.Flags().String("store-path", filepath.Join(".quire", "snapshots"), "Directory for the file store")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address (only for the redis store)")
	cmd.Flags().String("redis-password", "", "Redis password (only for the redis store)")
	cmd.Flags().Int("redis-db", 0, "Redis database number (only for the redis store)")
}
