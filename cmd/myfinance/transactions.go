package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yobazy/MyFinance/internal/cli"
	"github.com/yobazy/MyFinance/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Manage transactions",
	}

	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(setCategoryCmd())
	cmd.AddCommand(clearCategoryCmd())

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		amount     float64
		account    string
		date       string
		categoryID int
	)

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			txnDate := time.Now()
			if date != "" {
				var err error
				txnDate, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
				}
			}

			txn := model.Transaction{
				ID:          uuid.New().String(),
				Date:        txnDate,
				Description: args[0],
				Amount:      amount,
				AccountID:   account,
			}
			if categoryID != 0 {
				txn.CategoryID = &categoryID
				txn.ConfidenceScore = 1.0
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveTransactions(ctx, []model.Transaction{txn}); err != nil {
				return err
			}

			fmt.Printf("%s transaction %s\n", cli.SuccessStyle.Render("Recorded"), txn.ID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "transaction amount, negative for debits")
	cmd.Flags().StringVar(&account, "account", "default", "account id")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&categoryID, "category", 0, "assign a category immediately")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uncategorized transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions, err := store.GetUncategorizedTransactions(ctx, limit, 0)
			if err != nil {
				return err
			}

			if len(transactions) == 0 {
				fmt.Println(cli.InfoStyle.Render("No uncategorized transactions."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Date"),
				cli.TableHeaderStyle.Render("Description"),
				cli.TableHeaderStyle.Render("Amount"))

			for _, txn := range transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n",
					txn.ID, txn.Date.Format("2006-01-02"), txn.Description, txn.Amount)
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum transactions to show")

	return cmd
}

func setCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-category <transaction-id> <category-id>",
		Short: "Assign a category to a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			categoryID, err := parseID(args[1], "category id")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetCategoryByID(ctx, categoryID); err != nil {
				return err
			}
			if err := store.UpdateTransactionCategory(ctx, args[0], categoryID, false, 1.0); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("Categorized."))
			return nil
		},
	}
}

func clearCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-category <transaction-id>",
		Short: "Remove a transaction's category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearTransactionCategory(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("Category cleared."))
			return nil
		},
	}
}
