package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/server"
	"github.com/openmined/dirsync/internal/server/store"
	"github.com/openmined/dirsync/internal/utils"
	"github.com/openmined/dirsync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DIRSYNC"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dirsync-server",
		Short:        "dirsync server, stores the synced objects",
		Version:      version.Detailed(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := utils.SetupLogger(cfg.LogLevel); err != nil {
				return err
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringP("config", "c", "", "Path to the config file (json, yaml or toml)")
	cmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	cmd.Flags().String("cert", "", "Path to the TLS certificate file")
	cmd.Flags().String("key", "", "Path to the TLS key file")
	cmd.Flags().StringP("root", "r", store.DefaultRoot, "Directory holding the stored objects")
	cmd.Flags().Int("chunk-size", chunker.DefaultChunkSize, "Chunk size in bytes, must match the clients")
	cmd.Flags().Int64("max-object-size", store.DefaultMaxObjectSize, "Largest object the store accepts, in bytes")
	cmd.Flags().String("db", server.DefaultDBPath, "Path to the object index database")
	cmd.Flags().String("rate-limit", "", "Per client rate limit, e.g. 100-S (empty disables)")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func main() {
	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges flags, DIRSYNC_* env vars, the config file and defaults
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.cert_file", "")
	v.SetDefault("http.key_file", "")
	v.SetDefault("http.read_timeout", server.DefaultReadTimeout)
	v.SetDefault("http.write_timeout", server.DefaultWriteTimeout)
	v.SetDefault("http.idle_timeout", server.DefaultIdleTimeout)
	v.SetDefault("http.rate_limit", "")
	v.SetDefault("store.root", store.DefaultRoot)
	v.SetDefault("store.chunk_size", chunker.DefaultChunkSize)
	v.SetDefault("store.max_object_size", store.DefaultMaxObjectSize)
	v.SetDefault("db_path", server.DefaultDBPath)
	v.SetDefault("log_level", "info")

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	flags := map[string]string{
		"http.addr":             "bind",
		"http.cert_file":        "cert",
		"http.key_file":         "key",
		"http.rate_limit":       "rate-limit",
		"store.root":            "root",
		"store.chunk_size":      "chunk-size",
		"store.max_object_size": "max-object-size",
		"db_path":               "db",
		"log_level":             "log-level",
	}
	for key, flag := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg server.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(errors.New("invalid config"), err)
	}
	return &cfg, nil
}
