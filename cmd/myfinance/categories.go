package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/yobazy/MyFinance/internal/cli"
	"github.com/yobazy/MyFinance/internal/common"
	"github.com/yobazy/MyFinance/internal/model"
	"github.com/yobazy/MyFinance/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category tree",
		Long:  `List, add, update, and delete the categories transactions are sorted into.`,
	}

	cmd.AddCommand(treeCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(renameCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func treeCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the category tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return err
			}

			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'myfinance categories add' to create one."))
				return nil
			}

			children := make(map[int][]model.Category)
			var roots []model.Category
			for _, cat := range categories {
				if cat.IsRoot() {
					roots = append(roots, cat)
				} else {
					children[*cat.ParentID] = append(children[*cat.ParentID], cat)
				}
			}

			for _, root := range roots {
				fmt.Printf("%s %s\n", cli.BoldStyle.Render(root.Name), cli.SubtleStyle.Render(fmt.Sprintf("(%d)", root.ID)))
				subs := children[root.ID]
				for i, sub := range subs {
					branch := "├─"
					if i == len(subs)-1 {
						branch = "└─"
					}
					fmt.Printf("  %s %s %s\n", branch, sub.Name, cli.SubtleStyle.Render(fmt.Sprintf("(%d)", sub.ID)))
				}
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		parent      string
		description string
		color       string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Long:  `Create a root category, or a subcategory when --parent names an existing root.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := strings.TrimSpace(args[0])

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat := model.Category{Name: name, Description: description, Color: color}

			if parent != "" {
				root, err := store.GetRootCategoryByName(ctx, parent)
				if errors.Is(err, common.ErrNotFound) {
					msg := fmt.Sprintf("root category %q not found", parent)
					if hint := closestCategoryName(ctx, store, parent); hint != "" {
						msg += fmt.Sprintf(" (did you mean %q?)", hint)
					}
					return errors.New(msg)
				}
				if err != nil {
					return err
				}
				cat.ParentID = &root.ID
			}

			if err := store.CreateCategory(ctx, &cat); err != nil {
				return err
			}

			fmt.Printf("%s category %q (id %d)\n", cli.SuccessStyle.Render("Created"), cat.Name, cat.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "root category to nest under")
	cmd.Flags().StringVar(&description, "description", "", "category description")
	cmd.Flags().StringVar(&color, "color", "", "display color, e.g. #4C9AFF")

	return cmd
}

func renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "category id")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := store.GetCategoryByID(ctx, id)
			if err != nil {
				return err
			}

			old := cat.Name
			cat.Name = strings.TrimSpace(args[1])
			if err := store.UpdateCategory(ctx, cat); err != nil {
				return err
			}

			fmt.Printf("%s %q -> %q\n", cli.SuccessStyle.Render("Renamed"), old, cat.Name)
			return nil
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. A category that still has subcategories cannot be deleted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "category id")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCategory(ctx, id); err != nil {
				if errors.Is(err, common.ErrHasSubcategories) {
					return fmt.Errorf("category %d still has subcategories; delete or move them first", id)
				}
				return err
			}

			fmt.Printf("%s category %d\n", cli.SuccessStyle.Render("Deleted"), id)
			return nil
		},
	}
}

// closestCategoryName finds the existing category name nearest to the given
// one, for typo hints. Only close matches count.
func closestCategoryName(ctx context.Context, store service.Storage, name string) string {
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return ""
	}

	best := ""
	bestDistance := 4
	lower := strings.ToLower(name)
	for _, cat := range categories {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(cat.Name))
		if d < bestDistance {
			best = cat.Name
			bestDistance = d
		}
	}
	return best
}
