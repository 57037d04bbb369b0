package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biguard/biguard/internal/cli"
)

func quarantineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Inspect and manage quarantined transactions",
	}

	cmd.AddCommand(quarantineSummaryCmd())
	cmd.AddCommand(quarantineClearCmd())

	return cmd
}

func quarantineSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a user's quarantine summary",
		RunE:  runQuarantineSummary,
	}

	cmd.Flags().StringP("user", "u", "", "user ID (required)")
	cmd.Flags().StringP("segment", "s", "real", "data segment (sample, real)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runQuarantineSummary(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	segmentFlag, _ := cmd.Flags().GetString("segment")

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

	summary, err := newDetector(store).Summarize(ctx, userID, segment)
	if err != nil {
		return fmt.Errorf("failed to summarize quarantine: %w", err)
	}

	var content strings.Builder
	fmt.Fprintf(&content, "Total quarantined:  %d\n", summary.Total)
	fmt.Fprintf(&content, "High severity:      %d\n", summary.HighSeverity)
	fmt.Fprintf(&content, "Medium severity:    %d\n", summary.MediumSeverity)
	fmt.Fprintf(&content, "Risk level:         %s", cli.StyleRiskLevel(summary.RiskLevel))

	if len(summary.Recent) > 0 {
		content.WriteString("\n\nMost recent:")
		for _, record := range summary.Recent {
			fmt.Fprintf(&content, "\n  %s  %-28s  $%.2f  [%s]",
				record.DetectedAt.Format("2006-01-02"),
				truncate(record.Name, 28),
				record.Amount,
				cli.StyleSeverity(record.Severity))
		}
	}

	fmt.Println(cli.RenderBox(
		fmt.Sprintf("Quarantine — user %s (%s)", userID, segment),
		content.String()))

	return nil
}

func quarantineClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete a user's quarantine records",
		Long: `Delete all quarantine records for a (user, segment) pair.

The original transactions are not restored to the active ledger; clearing
is a destructive audit-trail reset.`,
		RunE: runQuarantineClear,
	}

	cmd.Flags().StringP("user", "u", "", "user ID (required)")
	cmd.Flags().StringP("segment", "s", "real", "data segment (sample, real)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runQuarantineClear(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	segmentFlag, _ := cmd.Flags().GetString("segment")

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

	removed, err := newDetector(store).ClearQuarantine(ctx, userID, segment)
	if err != nil {
		return fmt.Errorf("failed to clear quarantine: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Cleared %d quarantine record(s)", removed)))
	return nil
}
