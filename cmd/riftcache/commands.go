package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"riftcache/internal/core"
	"riftcache/internal/riot"
	"riftcache/internal/settings"
	"riftcache/internal/storage"
)

var keyCmd = &cobra.Command{
	Use:   "key [RGAPI-...]",
	Short: "Show or set the Riot API key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 1 {
			if err := current.svc.SetAPIKey(ctx, args[0]); err != nil {
				return err
			}
		}
		key, err := current.svc.APIKey(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, settings.Redact(key))
		return nil
	},
}

var regionCmd = &cobra.Command{
	Use:   "region [platform]",
	Short: "Show or set the platform region (euw1, na1, kr, ...)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := current.svc.SetRegion(cmd.Context(), args[0]); err != nil {
				return err
			}
		}
		region := current.svc.Region()
		fmt.Fprintf(os.Stdout, "%s (%s)\n", region, riot.RegionalCluster(region))
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account <name#tag>",
	Short: "Resolve a Riot ID and cache the identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, tag, err := core.ParseRiotID(args[0])
		if err != nil {
			return err
		}
		id, err := current.svc.ResolveAccount(cmd.Context(), name, tag)
		if err != nil {
			return err
		}
		return printJSON(identityView(id))
	},
}

var identityCmd = &cobra.Command{
	Use:   "identity <puuid>",
	Short: "Show a cached identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := current.svc.Identity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(identityView(id))
	},
}

var matchRaw bool

var matchCmd = &cobra.Command{
	Use:   "match <match-id>",
	Short: "Show match detail, fetching it once if not cached",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := current.svc.Match(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if matchRaw {
			_, err := os.Stdout.Write(append(m.Raw, '\n'))
			return err
		}
		return printJSON(m)
	},
}

var matchesLimit int

var matchesCmd = &cobra.Command{
	Use:   "matches <puuid|name#tag>",
	Short: "List a player's cached matches, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		puuid, err := resolvePlayer(ctx, args[0])
		if err != nil {
			return err
		}
		ms, err := current.svc.PlayerMatches(ctx, puuid, matchesLimit)
		if err != nil {
			return err
		}

		rows := make([]matchLine, 0, len(ms))
		for _, m := range ms {
			rows = append(rows, newMatchLine(m, puuid))
		}
		return printJSON(rows)
	},
}

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent cached matches of any player",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := current.svc.RecentMatches(cmd.Context(), recentLimit)
		if err != nil {
			return err
		}

		rows := make([]matchLine, 0, len(ms))
		for _, m := range ms {
			rows = append(rows, newMatchLine(m, ""))
		}
		return printJSON(rows)
	},
}

var syncCount int

var syncCmd = &cobra.Command{
	Use:   "sync <puuid|name#tag>",
	Short: "Cache a player's most recent matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		puuid, err := resolvePlayer(ctx, args[0])
		if err != nil {
			return err
		}
		res, err := current.svc.SyncHistory(ctx, puuid, syncCount)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <puuid|name#tag>",
	Short: "Summarize a player's cached games",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		puuid, err := resolvePlayer(ctx, args[0])
		if err != nil {
			return err
		}
		ps, err := current.svc.PlayerStats(ctx, puuid)
		if err != nil {
			return err
		}
		return printJSON(ps)
	},
}

var rankedCmd = &cobra.Command{
	Use:   "ranked <puuid|name#tag>",
	Short: "Show ranked standing, refreshed when older than the TTL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		puuid, err := resolvePlayer(ctx, args[0])
		if err != nil {
			return err
		}
		snap, err := current.svc.Ranked(ctx, puuid)
		if err != nil {
			return err
		}
		return printJSON(rankedView(snap))
	},
}

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy search cached identities by name#tag",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		ids, err := current.svc.SearchIdentities(cmd.Context(), query, searchLimit)
		if err != nil {
			return err
		}
		out := make([]identityJSON, 0, len(ids))
		for i := range ids {
			out = append(out, identityView(&ids[i]))
		}
		return printJSON(out)
	},
}

var storeStatsCmd = &cobra.Command{
	Use:   "store-stats",
	Short: "Show row counts and database size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := current.svc.StoreStats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(statsView(st, current.cfg.DB.RankedRetention.Std()))
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the database answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.svc.Health(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "ok (%s %s)\n", current.store.Driver(), current.cfg.DB.Path)
		return nil
	},
}

var sweepWatch bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete ranked snapshots older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		retention := current.cfg.DB.RankedRetention.Std()
		if sweepWatch {
			current.store.StartSweeper(ctx, storage.SweepConfig{
				Retention: retention,
				Interval:  current.cfg.DB.SweepInterval.Std(),
			}, current.logger)
			return nil
		}
		if retention <= 0 {
			return fmt.Errorf("%s: ranked retention is disabled", core.StageConfig)
		}
		res := current.store.Sweep(ctx, retention, current.logger)
		if res == nil {
			return fmt.Errorf("%s: sweep did not complete", core.StagePersist)
		}
		return printJSON(sweepView(res))
	},
}

func init() {
	matchCmd.Flags().BoolVar(&matchRaw, "raw", false, "print the upstream payload as stored")
	matchesCmd.Flags().IntVarP(&matchesLimit, "limit", "n", 20, "maximum number of matches")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 20, "maximum number of matches")
	syncCmd.Flags().IntVarP(&syncCount, "count", "n", 20, "number of recent matches to cache (max 100)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	sweepCmd.Flags().BoolVar(&sweepWatch, "watch", false, "keep sweeping on the configured interval")

	rootCmd.AddCommand(
		keyCmd,
		regionCmd,
		accountCmd,
		identityCmd,
		matchCmd,
		matchesCmd,
		recentCmd,
		syncCmd,
		statsCmd,
		rankedCmd,
		searchCmd,
		storeStatsCmd,
		healthCmd,
		sweepCmd,
	)
}
