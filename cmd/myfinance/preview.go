package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yobazy/MyFinance/internal/cli"
	"github.com/yobazy/MyFinance/internal/engine"
	"github.com/yobazy/MyFinance/internal/service"
)

func previewCmd() *cobra.Command {
	var (
		page      int
		pageSize  int
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview what categorization would do, without changing anything",
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

			result, err := engine.New(store).PreviewCategorize(ctx, page, pageSize, threshold)
			if err != nil {
				return err
			}

			if len(result.Items) == 0 {
				fmt.Println(cli.InfoStyle.Render("No uncategorized transactions."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Date"),
				cli.TableHeaderStyle.Render("Description"),
				cli.TableHeaderStyle.Render("Amount"),
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Confidence"),
				cli.TableHeaderStyle.Render("Apply?"))

			for _, item := range result.Items {
				categoryName := cli.SubtleStyle.Render("(none)")
				if item.Category != nil {
					categoryName = item.Category.Name
				}
				wouldApply := ""
				if item.WouldApply {
					wouldApply = cli.SuccessStyle.Render("yes")
				}
				desc := item.Transaction.Description
				if len(desc) > 40 {
					desc = desc[:37] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
					item.Transaction.Date.Format("2006-01-02"),
					desc,
					item.Transaction.Amount,
					categoryName,
					cli.ConfidenceStyle(item.Confidence).Render(fmt.Sprintf("%.2f", item.Confidence)),
					wouldApply)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\n%s high: %d  medium: %d  low: %d  none: %d\n",
				cli.BoldStyle.Render("Confidence:"),
				result.Stats.High, result.Stats.Medium, result.Stats.Low, result.Stats.None)
			fmt.Printf("Page %d of %d", result.Pagination.CurrentPage, result.Pagination.TotalPages)
			if result.Pagination.HasNext {
				fmt.Printf("  %s", cli.SubtleStyle.Render(fmt.Sprintf("(--page %d for more)", result.Pagination.CurrentPage+1)))
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "transactions per page")
	cmd.Flags().Float64Var(&threshold, "threshold", engine.DefaultThreshold, "confidence threshold used for the Apply? column")

	return cmd
}

func applyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply reviewed categorization decisions",
		Long: `Apply a batch of reviewed decisions from a JSON file ("-" for stdin).

The file holds a list of changes:

  [
    {"transaction_id": "abc", "category_id": 12, "action": "categorize"},
    {"transaction_id": "def", "action": "remove"}
  ]

Failed items are reported individually; the rest still apply.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var data []byte
			var err error
			if file == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("failed to read changes: %w", err)
			}

			var changes []service.CategoryChange
			if err := json.Unmarshal(data, &changes); err != nil {
				return fmt.Errorf("failed to parse changes: %w", err)
			}
			if len(changes) == 0 {
				fmt.Println(cli.InfoStyle.Render("No changes to apply."))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := engine.New(store).ApplyChanges(ctx, changes)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d of %d changes applied\n",
				cli.SuccessStyle.Render("Done:"), result.AppliedCount, len(changes))

			if len(result.Errors) > 0 {
				fmt.Println(cli.ErrorStyle.Render(fmt.Sprintf("%d failed:", len(result.Errors))))
				for _, e := range result.Errors {
					fmt.Printf("  %s: %s\n", e.TransactionID, e.Error)
				}
				return fmt.Errorf("%d of %d changes failed", len(result.Errors), len(changes))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "-", "JSON file of changes, or - for stdin")

	return cmd
}

func similarCmd() *cobra.Command {
	var (
		categoryID int
		countOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "similar <transaction-id>",
		Short: "Categorize all uncategorized transactions with the same description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txnID := strings.TrimSpace(args[0])

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng := engine.New(store)

			if countOnly {
				count, err := eng.CountSimilarTransactions(ctx, txnID)
				if err != nil {
					return err
				}
				fmt.Printf("%d other uncategorized transactions share this description\n", count)
				return nil
			}

			if categoryID == 0 {
				return fmt.Errorf("--category is required unless --count is set")
			}

			updated, err := eng.ApplyCategoryToSimilar(ctx, txnID, categoryID)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d transactions categorized\n", cli.SuccessStyle.Render("Done:"), updated)
			return nil
		},
	}

	cmd.Flags().IntVar(&categoryID, "category", 0, "category id to assign")
	cmd.Flags().BoolVar(&countOnly, "count", false, "only count matching transactions")

	return cmd
}
