package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/engine"
	"github.com/rushteam/swipekit/feed"
)

func newRecordCmd(opts *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "record <user> <item> <like|pass|save>",
		Short: "Record a swipe",
		Example: `  swipekit record alice i1 like
  swipekit record alice i2 save --at 2026-01-01T12:00:00Z`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := core.Interaction{
				UserID: args[0],
				ItemID: args[1],
				Action: core.Action(strings.ToLower(args[2])),
			}
			if at != "" {
				ts, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				ev.Timestamp = ts
			}
			return opts.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				if err := eng.RecordInteraction(cmd.Context(), ev); err != nil {
					return err
				}
				p, err := eng.GetProfile(cmd.Context(), ev.UserID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Event timestamp (RFC3339), defaults to now")
	return cmd
}

func newFeedCmd(opts *rootOptions) *cobra.Command {
	var (
		req      feed.Request
		minPrice float64
		maxPrice float64
	)

	cmd := &cobra.Command{
		Use:   "feed <user>",
		Short: "Assemble a feed page",
		Example: `  swipekit feed alice --size 10
  swipekit feed alice --category Activewear --max-price 150
  swipekit feed alice --expr '"summer" in item.tags'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.UserID = args[0]
			if cmd.Flags().Changed("min-price") {
				req.Filters.MinPrice = core.Price(minPrice)
			}
			if cmd.Flags().Changed("max-price") {
				req.Filters.MaxPrice = core.Price(maxPrice)
			}
			return opts.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				page, err := eng.GetFeed(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), page)
			})
		},
	}

	f := cmd.Flags()
	f.IntVarP(&req.PageSize, "size", "n", 0, "Page size (default from config, capped at max_page_size)")
	f.StringVar(&req.Cursor, "cursor", "", "next_cursor of the previous page; excludes items already shown")
	f.StringVar(&req.Filters.Category, "category", "", "Only this category")
	f.StringVar(&req.Filters.Brand, "brand", "", "Only this brand")
	f.StringVar(&req.Filters.Gender, "gender", "", "Only this gender")
	f.Float64Var(&minPrice, "min-price", 0, "Minimum price")
	f.Float64Var(&maxPrice, "max-price", 0, "Maximum price")
	f.StringVar(&req.Filters.Expr, "expr", "", "CEL filter expression over item")
	return cmd
}

func newCompatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compat <userA> <userB>",
		Short: "Score compatibility between two users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				res, err := eng.GetCompatibility(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var top bool

	cmd := &cobra.Command{
		Use:   "profile <user>",
		Short: "Show a user's preference profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				if top {
					t, err := eng.TopPreferences(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), t)
				}
				p, err := eng.GetProfile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().BoolVar(&top, "top", false, "Show top categories, brands and colors only")
	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <user>",
		Short: "Reset a user's preference profile (the interaction log is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				p, err := eng.ResetProfile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

func newBlacklistCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "blacklist <item>...",
		Short: "Replace the item blacklist (requires pipeline.blacklist_key)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				if err := eng.SetBlacklist(cmd.Context(), args); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "blacklist: %d items\n", len(args))
				return nil
			})
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Store.Redis.Password != "" {
				cfg.Store.Redis.Password = "******"
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
