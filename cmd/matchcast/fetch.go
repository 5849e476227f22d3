package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/fetch"
	"github.com/dgnsrekt/matchcast/internal/notify"
	"github.com/dgnsrekt/matchcast/internal/replay"
	"github.com/dgnsrekt/matchcast/internal/staging"
)

func fetchCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "fetch URL [DEST]",
		Short: "Download a replay directory from a web host",
		Long: `Download static.json and every shard it calls for from URL into
DEST/<match> (DEST defaults to ./replays). The match name is the last
element of URL unless --name is given.

Files already in the destination are kept, so an interrupted fetch can be
rerun. Nothing is moved into place unless every shard was found.

Examples:
  matchcast fetch https://replays.example.com/season3/final

  matchcast fetch --name final --workers 6 https://replays.example.com/s3/m17 /srv/replays`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := cfg.ValidateFetch(); err != nil {
				return err
			}

			dest := "replays"
			if len(args) == 2 {
				dest = args[1]
			}

			client := fetch.NewClient(
				cfg.Fetch.RatePerSecond,
				cfg.Fetch.Timeout(),
				cfg.Fetch.RetryBackoff(),
				cfg.Fetch.RetryCount,
				logger,
			)
			stgMgr := staging.NewManager(dest)
			mgr := fetch.NewManager(client, stgMgr, fetch.Options{
				Workers:   cfg.Fetch.Workers,
				ShardSize: cfg.ShardSize,
				Verify:    cfg.Fetch.Verify,
			}, logger)
			notifier := notify.New(&cfg.Notify, logger)

			start := time.Now()
			result, err := mgr.Fetch(ctx, args[0], name)

			// Notify even when interrupted
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()

			if err != nil {
				for _, e := range result.Errors {
					logger.Error("fetch error", zap.String("error", e))
				}
				if nerr := notifier.SendFetchFailed(nctx, result, time.Since(start), err); nerr != nil {
					logger.Warn("failed to send failure notification", zap.Error(nerr))
				}
				return err
			}

			if nerr := notifier.SendFetchComplete(nctx, result, time.Since(start)); nerr != nil {
				logger.Warn("failed to send success notification", zap.Error(nerr))
			}

			fmt.Fprintln(cmd.OutOrStdout(), stgMgr.FinalDir(result.Match))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "directory name for the match (default: last element of URL)")
	cmd.Flags().Int("workers", 3, "parallel downloads")
	cmd.Flags().Int("rate", 5, "requests per second")
	cmd.Flags().Bool("verify", true, "load the fetched replay to check it is complete")
	cmd.Flags().Int("shard-size", replay.DefaultShardSize, "steps per shard file")
	cmd.Flags().Bool("notify", false, "send an ntfy notification when the fetch ends")
	cmd.Flags().String("notify-topic", "", "ntfy topic")

	return cmd
}
