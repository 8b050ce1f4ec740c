package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/shelfwatch/shelfwatch/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the category tree",
		Long:  `Display the category tree master products are filed under.`,
		RunE:  runCategories,
	}

	return cmd
}

func runCategories(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	categories, err := store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}

	if len(categories) == 0 {
		fmt.Println(cli.FormatInfo("No categories found."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Categories"))

	byParent := make(map[int64][]model.Category)
	for _, c := range categories {
		parent := int64(0)
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		byParent[parent] = append(byParent[parent], c)
	}
	for _, children := range byParent {
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID")+"\t"+cli.TableHeaderStyle.Render("Category"))
	printCategoryTree(w, byParent, 0, 0)
	return w.Flush()
}

func printCategoryTree(w *tabwriter.Writer, byParent map[int64][]model.Category, parent int64, depth int) {
	for _, c := range byParent[parent] {
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "  "
		}
		fmt.Fprintf(w, "%d\t%s%s\n", c.ID, indent, c.Name)
		printCategoryTree(w, byParent, c.ID, depth+1)
	}
}
