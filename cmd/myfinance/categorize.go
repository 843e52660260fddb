package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yobazy/MyFinance/internal/cli"
	"github.com/yobazy/MyFinance/internal/engine"
)

func categorizeCmd() *cobra.Command {
	var (
		threshold  float64
		skipPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize all uncategorized transactions",
		Long: `Run the categorization pipeline over every uncategorized transaction.

Matches at or above the confidence threshold are assigned directly; weaker
matches are stored as suggestions for review.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !cmd.Flags().Changed("threshold") && viper.IsSet("categorization.threshold") {
				threshold = viper.GetFloat64("categorization.threshold")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pending, err := store.CountUncategorizedTransactions(ctx)
			if err != nil {
				return err
			}
			if pending == 0 {
				fmt.Println(cli.InfoStyle.Render("Nothing to categorize."))
				return nil
			}

			if !skipPrompt {
				reader := cli.NewReader(os.Stdin)
				question := fmt.Sprintf("Categorize %d transactions at threshold %.2f?", pending, threshold)
				ok, err := cli.Confirm(ctx, reader, os.Stdout, question)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(cli.SubtleStyle.Render("Aborted."))
					return nil
				}
			}

			bar := progressbar.NewOptions(pending,
				progressbar.OptionSetDescription("Categorizing"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			eng := engine.New(store)
			stats, err := eng.BulkCategorize(ctx, threshold, func(done, _ int) {
				_ = bar.Set(done)
			})
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render("Categorization complete"))
			fmt.Printf("  Processed:       %d\n", stats.TotalProcessed)
			fmt.Printf("  %s %d\n", cli.SuccessStyle.Render("By your rules:  "), stats.UserRuleCategorized)
			fmt.Printf("  %s %d\n", cli.SuccessStyle.Render("Auto-matched:   "), stats.AutoCategorized)
			fmt.Printf("  %s %d\n", cli.WarningStyle.Render("Needs review:   "), stats.NeedsReview)
			fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("No match:       "), stats.NoMatch)

			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", engine.DefaultThreshold, "minimum confidence to assign a category")
	cmd.Flags().BoolVar(&skipPrompt, "yes", false, "skip the confirmation prompt")

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show categorization statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := engine.New(store).Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render("Categorization status"))
			fmt.Printf("  Total transactions:  %d\n", stats.TotalTransactions)
			fmt.Printf("  Categorized:         %d\n", stats.Categorized)
			fmt.Printf("  Auto-categorized:    %d\n", stats.AutoCategorized)
			fmt.Printf("  Uncategorized:       %d\n", stats.Uncategorized)
			fmt.Printf("  Coverage:            %s\n",
				cli.ConfidenceStyle(stats.CategorizationRate).Render(fmt.Sprintf("%.1f%%", stats.CategorizationRate*100)))

			return nil
		},
	}
}
