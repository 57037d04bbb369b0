package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biguard/biguard/internal/cli"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run anomaly detection over a user's recent transactions",
		Long: `Score a user's recent transactions against their trained risk model.

Every transaction whose composite score crosses the blocking threshold is
moved out of the active ledger into quarantine. If no model exists yet,
one is trained on the spot.`,
		RunE: runDetect,
	}

	cmd.Flags().StringP("user", "u", "", "user ID (required)")
	cmd.Flags().StringP("segment", "s", "real", "data segment (sample, real)")
	cmd.Flags().IntP("limit", "l", 100, "maximum number of recent transactions to score")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runDetect(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	segmentFlag, _ := cmd.Flags().GetString("segment")
	limit, _ := cmd.Flags().GetInt("limit")

	segment, err := parseSegment(segmentFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	verdicts, err := newDetector(store).DetectBatch(ctx, userID, segment, limit)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if len(verdicts) == 0 {
		fmt.Println(cli.FormatSuccess("No anomalous transactions found"))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Quarantined %d transaction(s)", len(verdicts))))
	for _, verdict := range verdicts {
		fmt.Printf("  %s  %-30s  $%.2f  score %.1f  [%s]\n",
			cli.AlertIcon,
			truncate(verdict.TransactionName, 30),
			verdict.Amount,
			verdict.Score,
			cli.StyleSeverity(verdict.Severity))
		if len(verdict.Reasons) > 0 {
			fmt.Println(cli.SubtleStyle.Render("      " + strings.Join(verdict.Reasons, "; ")))
		}
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
