package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shelfwatch/shelfwatch/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func suggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List unmatched listings awaiting review",
		Long: `Display raw listings that could not be confidently matched, together
with their ranked master-product candidates.`,
		RunE: runSuggestions,
	}

	// Flags
	cmd.Flags().Int("limit", 50, "Maximum suggestions to display")

	// Bind to viper
	_ = viper.BindPFlag("suggestions.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runSuggestions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	suggestions, err := store.GetSuggestions(ctx, viper.GetInt("suggestions.limit"))
	if err != nil {
		return fmt.Errorf("failed to get suggestions: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println(cli.FormatInfo("No suggestions pending review."))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%d suggestions pending review", len(suggestions))))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, cli.TableHeaderStyle.Render("ID")+"\t"+
		cli.TableHeaderStyle.Render("Retailer")+"\t"+
		cli.TableHeaderStyle.Render("Code")+"\t"+
		cli.TableHeaderStyle.Render("Name")+"\t"+
		cli.TableHeaderStyle.Render("Brand")+"\t"+
		cli.TableHeaderStyle.Render("Price")+"\t"+
		cli.TableHeaderStyle.Render("Candidates"))

	for _, s := range suggestions {
		candidates, err := store.GetMatchCandidates(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("failed to get candidates for suggestion %d: %w", s.ID, err)
		}

		candidateCol := cli.SubtleStyle.Render("none")
		if len(candidates) > 0 {
			candidateCol = ""
			for i, c := range candidates {
				if i > 0 {
					candidateCol += ", "
				}
				candidateCol += fmt.Sprintf("#%d (%.0f%%)", c.ProductID, c.Confidence*100)
			}
		}

		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.2f\t%s\n",
			s.ID, s.RetailerID, s.RetailerCode, s.Name, s.Brand, s.Price, candidateCol)
	}

	return w.Flush()
}
