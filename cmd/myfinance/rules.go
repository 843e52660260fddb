package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yobazy/MyFinance/internal/cli"
	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/rule"
	"github.com/yobazy/MyFinance/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long:  `List, add, update, delete, and test the rules that drive categorization.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(updateRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(testRuleCmd())
	cmd.AddCommand(validateRuleCmd())
	cmd.AddCommand(statsRulesCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categorization rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var rules []model.CategorizationRule
			if all {
				rules, err = store.GetRules(ctx)
			} else {
				rules, err = store.GetActiveRules(ctx)
			}
			if err != nil {
				return err
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'myfinance rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Priority"),
				cli.TableHeaderStyle.Render("Matches"),
				cli.TableHeaderStyle.Render("Active"),
				cli.TableHeaderStyle.Render("Rule"))

			for _, r := range rules {
				active := cli.SuccessStyle.Render("yes")
				if !r.IsActive {
					active = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.Name, r.Priority, r.MatchCount, active, r.Preview())
			}

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive rules")

	return cmd
}

func addRuleCmd() *cobra.Command {
	var (
		ruleType      string
		pattern       string
		description   string
		conditions    string
		categoryID    int
		priority      int
		caseSensitive bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a categorization rule",
		Long: `Create a rule that assigns a category to matching transactions.

Rule types: keyword, contains, exact, regex, amount_range, amount_exact,
amount_greater, amount_less, merchant, date_range, day_of_week, recurring,
combined.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r := model.CategorizationRule{
				Name:          args[0],
				Description:   description,
				Type:          model.RuleType(ruleType),
				Pattern:       pattern,
				CategoryID:    categoryID,
				Priority:      priority,
				IsActive:      true,
				CaseSensitive: caseSensitive,
			}

			if conditions != "" {
				var rc model.RuleConditions
				if err := json.Unmarshal([]byte(conditions), &rc); err != nil {
					return fmt.Errorf("failed to parse conditions: %w", err)
				}
				r.Conditions = &rc
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateRule(ctx, &r); err != nil {
				return err
			}

			fmt.Printf("%s rule %d: %s\n", cli.SuccessStyle.Render("Created"), r.ID, r.Preview())
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleType, "type", "keyword", "rule type")
	cmd.Flags().StringVar(&pattern, "pattern", "", "rule pattern (meaning depends on type)")
	cmd.Flags().StringVar(&description, "description", "", "what this rule is for")
	cmd.Flags().StringVar(&conditions, "conditions", "", "JSON conditions for combined rules")
	cmd.Flags().IntVar(&categoryID, "category", 0, "subcategory id to assign on match")
	cmd.Flags().IntVar(&priority, "priority", 0, "evaluation priority, higher wins")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match case exactly")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func updateRuleCmd() *cobra.Command {
	var (
		priority int
		active   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a rule's priority or active state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "rule id")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			r, err := store.GetRule(ctx, id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("priority") {
				r.Priority = priority
			}
			if cmd.Flags().Changed("active") {
				r.IsActive = active
			}

			if err := store.UpdateRule(ctx, r); err != nil {
				return err
			}

			fmt.Printf("%s rule %d\n", cli.SuccessStyle.Render("Updated"), r.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&priority, "priority", 0, "new priority")
	cmd.Flags().BoolVar(&active, "active", true, "enable or disable the rule")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule and its usage history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "rule id")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return err
			}

			fmt.Printf("%s rule %d\n", cli.SuccessStyle.Render("Deleted"), id)
			return nil
		},
	}
}

func testRuleCmd() *cobra.Command {
	var (
		description string
		amount      float64
		date        string
		accountID   string
	)

	cmd := &cobra.Command{
		Use:   "test <id>",
		Short: "Test a rule against a hypothetical transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "rule id")
			if err != nil {
				return err
			}

			txnDate := time.Now()
			if date != "" {
				txnDate, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			r, err := store.GetRule(ctx, id)
			if err != nil {
				return err
			}

			txn := model.Transaction{
				ID:          uuid.New().String(),
				Date:        txnDate,
				Description: description,
				Amount:      amount,
				AccountID:   accountID,
			}

			matcher := rule.NewMatcher(recurrenceStore{store})
			if matcher.Matches(ctx, txn, *r) {
				fmt.Println(cli.SuccessStyle.Render("MATCH") + "  " + r.Preview())
			} else {
				fmt.Println(cli.SubtleStyle.Render("no match") + "  " + r.Preview())
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	cmd.Flags().Float64Var(&amount, "amount", 0, "transaction amount")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&accountID, "account", "test-account", "account id for recurring checks")

	return cmd
}

func validateRuleCmd() *cobra.Command {
	var (
		ruleType string
		pattern  string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a rule pattern without saving it",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := rule.ValidatePattern(model.RuleType(ruleType), pattern); err != nil {
				fmt.Println(cli.ErrorStyle.Render("Invalid: ") + err.Error())
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Valid pattern."))
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleType, "type", "keyword", "rule type")
	cmd.Flags().StringVar(&pattern, "pattern", "", "pattern to validate")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func statsRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-rule match statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetActiveRules(ctx)
			if err != nil {
				return err
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No active rules."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("ID"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Matches"),
				cli.TableHeaderStyle.Render("Usage records"),
				cli.TableHeaderStyle.Render("Last matched"))

			for _, r := range rules {
				usage, err := store.GetRuleUsageCount(ctx, r.ID)
				if err != nil {
					return err
				}
				lastMatched := cli.SubtleStyle.Render("never")
				if r.LastMatched != nil {
					lastMatched = r.LastMatched.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
					r.ID, r.Name, r.MatchCount, usage, lastMatched)
			}

			return w.Flush()
		},
	}
}

// recurrenceStore adapts storage history lookups for ad-hoc rule testing.
type recurrenceStore struct {
	store service.Storage
}

func (r recurrenceStore) CountRecurring(ctx context.Context, txn model.Transaction) (int, error) {
	return r.store.CountRecurringTransactions(ctx, txn)
}
