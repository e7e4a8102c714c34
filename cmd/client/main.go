package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/client"
	"github.com/openmined/dirsync/internal/utils"
	"github.com/openmined/dirsync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "DIRSYNC"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dirsync",
		Short:        "dirsync client, pushes a local folder to a dirsync server",
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

			c, err := client.New(cfg)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return c.Start(cmd.Context())
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringP("config", "c", "", "Path to the config file (json, yaml or toml)")
	cmd.Flags().StringP("watch-dir", "w", client.DefaultWatchDir, "Folder to watch and sync")
	cmd.Flags().StringP("server", "s", client.DefaultServerURL, "dirsync server url")
	cmd.Flags().Int("chunk-size", chunker.DefaultChunkSize, "Chunk size in bytes, must match the server")
	cmd.Flags().Duration("timeout", client.DefaultRequestTimeout, "Timeout of a single request")
	cmd.Flags().Int("retries", client.DefaultRetryCount, "Retries for rate limited, failed or unreachable requests")
	cmd.Flags().Bool("scan", true, "Sync the files already in the folder on start")
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
func loadConfig(cmd *cobra.Command) (*client.Config, error) {
	v := viper.New()

	v.SetDefault("watch_dir", client.DefaultWatchDir)
	v.SetDefault("server_url", client.DefaultServerURL)
	v.SetDefault("chunk_size", chunker.DefaultChunkSize)
	v.SetDefault("request_timeout", client.DefaultRequestTimeout)
	v.SetDefault("retry_count", client.DefaultRetryCount)
	v.SetDefault("scan_on_start", true)
	v.SetDefault("log_level", "info")

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	flags := map[string]string{
		"watch_dir":       "watch-dir",
		"server_url":      "server",
		"chunk_size":      "chunk-size",
		"request_timeout": "timeout",
		"retry_count":     "retries",
		"scan_on_start":   "scan",
		"log_level":       "log-level",
	}
	for key, flag := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var cfg client.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.ServerURL = utils.EnsureTrailingSlash(cfg.ServerURL)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(errors.New("invalid config"), err)
	}
	return &cfg, nil
}
