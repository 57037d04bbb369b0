package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/biguard/biguard/internal/cli"
	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
	"github.com/biguard/biguard/internal/ofx"
	"github.com/biguard/biguard/internal/service"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files
exported from your bank into a user's active ledger.

Examples:
  # Import single file
  biguard import-ofx --user alice ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory as sample data
  biguard import-ofx --user alice --segment sample ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("user", "u", "", "user ID to import for (required)")
	cmd.Flags().StringP("segment", "s", "real", "data segment (sample, real)")
	cmd.Flags().BoolP("dry-run", "d", false, "preview import without saving")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	segmentFlag, _ := cmd.Flags().GetString("segment")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	segment, err := parseSegment(segmentFlag)
	if err != nil {
		return err
	}

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	ctx := cmd.Context()
	parser := ofx.NewParser(userID, segment)

	// Collect transactions across files, deduplicating by hash.
	var allTransactions []model.Transaction
	seen := make(map[string]bool)

	bar := progressbar.NewOptions(len(allFiles),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Parsing statements..."))

	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		transactions, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		for _, txn := range transactions {
			if seen[txn.Hash] {
				continue
			}
			seen[txn.Hash] = true
			allTransactions = append(allTransactions, txn)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if len(allTransactions) == 0 {
		return fmt.Errorf("no transactions found in %d file(s)", len(allFiles))
	}

	if dryRun {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf(
			"Dry run: would import %d transaction(s) for user %s (%s)",
			len(allTransactions), userID, segment)))
		return nil
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	err = common.WithRetry(ctx, func() error {
		return store.SaveTransactions(ctx, allTransactions)
	}, service.RetryOptions{MaxAttempts: 3})
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d transaction(s) for user %s (%s)",
		len(allTransactions), userID, segment)))

	return nil
}
