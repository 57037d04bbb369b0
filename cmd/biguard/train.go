package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biguard/biguard/internal/cli"
	"github.com/biguard/biguard/internal/common"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the risk model for a user",
		Long: `Fit a fresh risk model on a user's transaction history.

The model is trained per (user, segment) pair and replaces any previously
stored model for that pair. Training requires a minimum amount of history;
until then detection treats the user's transactions as low risk.`,
		RunE: runTrain,
	}

	cmd.Flags().StringP("user", "u", "", "user ID (required)")
	cmd.Flags().StringP("segment", "s", "real", "data segment (sample, real)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
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

	riskModel, err := newDetector(store).Train(ctx, userID, segment)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientData) {
			fmt.Println(cli.FormatError(fmt.Sprintf("Not enough history to train: %v", err)))
			return nil
		}
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Trained risk model for user %s (%s): %d samples, %d trees, contamination %.2f",
		riskModel.UserID, riskModel.Segment, riskModel.SampleCount,
		riskModel.EnsembleSize, riskModel.Contamination)))
	fmt.Println(cli.SubtleStyle.Render("Trained at: " + riskModel.TrainedAt.Format("2006-01-02 15:04:05 MST")))

	return nil
}
