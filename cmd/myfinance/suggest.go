package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yobazy/MyFinance/internal/cli"
	"github.com/yobazy/MyFinance/internal/engine"
)

func suggestCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <transaction-id>",
		Short: "Suggest categories for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return err
			}

			suggestions, err := engine.New(store).Suggest(ctx, *txn, limit)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s (%.2f)\n", cli.BoldStyle.Render("Transaction:"), txn.Description, txn.Amount)

			if len(suggestions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No suggestions."))
				return nil
			}

			for i, s := range suggestions {
				fmt.Printf("  %d. %s  %s  %s\n",
					i+1,
					s.Category.Name,
					cli.ConfidenceStyle(s.Confidence).Render(fmt.Sprintf("%.2f", s.Confidence)),
					cli.SubtleStyle.Render(s.Reason))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 3, "maximum number of suggestions")

	cmd.AddCommand(refreshSuggestionsCmd())

	return cmd
}

func refreshSuggestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute suggestions for all uncategorized transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := engine.New(store).RefreshSuggestions(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d processed, %d suggestions updated, %d without a match\n",
				cli.SuccessStyle.Render("Done:"),
				stats.TotalProcessed, stats.SuggestionsUpdated, stats.NoSuggestion)
			return nil
		},
	}
}
