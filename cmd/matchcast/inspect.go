package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/matchcast/internal/replay"
)

func inspectCmd() *cobra.Command {
	var step int

	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Validate a replay directory and print a summary",
		Long: `Load a replay directory exactly as serve would and print what it holds.
Fails with the same error serve would report for a broken replay.

Examples:
  matchcast inspect replays/final

  # Print the payload recorded for step 42
  matchcast inspect --step 42 replays/final`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ShardSize < 1 {
				return fmt.Errorf("shard size must be >= 1, got %d", cfg.ShardSize)
			}

			dataset, err := replay.Load(args[0], cfg.ShardSize, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(out, dataset, cfg.ShardSize, cfg.SpeedInterval())

			if step >= 0 {
				payload, err := dataset.Snapshot(step)
				if err != nil {
					return err
				}
				return printJSON(out, payload)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&step, "step", -1, "print the payload of this step")
	cmd.Flags().Int("shard-size", replay.DefaultShardSize, "steps per shard file")
	cmd.Flags().Float64("speed", 0.5, "seconds between steps, used for the duration estimate")

	return cmd
}

func printSummary(w io.Writer, dataset *replay.Dataset, shardSize int, interval time.Duration) {
	steps := dataset.StepCount()
	fmt.Fprintf(w, "Match:     %s\n", dataset.Name())
	fmt.Fprintf(w, "Steps:     %d\n", steps)
	fmt.Fprintf(w, "Shards:    %d (size %d)\n", replay.ShardCount(steps, shardSize), shardSize)
	fmt.Fprintf(w, "Static:    %d bytes\n", len(dataset.Static()))
	if steps > 1 {
		fmt.Fprintf(w, "Duration:  %s at %s per step\n", (time.Duration(steps-1) * interval).Round(time.Second/10), interval)
	}
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("formatting payload: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
