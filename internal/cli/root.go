// Package cli 实现 swipekit 命令行的各个子命令。
package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/rushteam/swipekit/engine"
	"github.com/rushteam/swipekit/pkg/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd 创建根命令。
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "swipekit",
		Short: "Swipe-based personalization and ranking engine",
		Long: `swipekit turns like/pass/save swipes into a preference profile,
ranks catalog items into feed pages and scores compatibility between users.

Configuration is read from --config (or SWIPEKIT_CONFIG) and can be
overridden with SWIPEKIT_* environment variables, e.g. SWIPEKIT_FEED_PAGE_SIZE=10.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRecordCmd(opts),
		newFeedCmd(opts),
		newCompatCmd(opts),
		newProfileCmd(opts),
		newResetCmd(opts),
		newBlacklistCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*engine.Config, error) {
	cfg, err := engine.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logging.Init(cfg.Log)
	return cfg, nil
}

// withEngine 打开引擎执行 fn，结束后关闭。
func (o *rootOptions) withEngine(ctx context.Context, fn func(*engine.Engine) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	eng, err := engine.Open(ctx, cfg)
	if err != nil {
		return err
	}
	runErr := fn(eng)
	if err := eng.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
