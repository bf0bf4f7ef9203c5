package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Sternrassler/pokedex-loader/pkg/pokemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "Load pages of Pokémon and print them",
		Long: `Load one or more pages from PokeAPI and print the resolved records.
Loading stops early once the listing is exhausted.

Examples:
  pokedex list                    # First page as a table
  pokedex list -n 3               # First three pages
  pokedex list -n 2 -s saur       # Names containing "saur" within two pages
  pokedex list --json             # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, v)
		},
	}

	cmd.Flags().IntP("pages", "n", 1, "number of pages to load")
	cmd.Flags().StringP("search", "s", "", "only print records whose name contains this text")
	cmd.Flags().Bool("json", false, "output as JSON")
	bindFlags(v, "list", cmd.Flags())

	return cmd
}

func runList(cmd *cobra.Command, v *viper.Viper) error {
	pages := v.GetInt("list.pages")
	if pages < 1 {
		return fmt.Errorf("--pages must be >= 1 (got %d)", pages)
	}

	ctx := cmd.Context()
	l, cleanup, err := newLoader(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	for i := 0; i < pages && l.HasMore(); i++ {
		if err := l.LoadNextPage(ctx); err != nil {
			return fmt.Errorf("load page %d: %w", i+1, err)
		}
	}

	l.SetSearchQuery(v.GetString("list.search"))
	records := l.Filtered()

	if v.GetBool("list.json") {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	return printTable(cmd.OutOrStdout(), records)
}

func printTable(out io.Writer, records []pokemon.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPES\tHEIGHT\tWEIGHT")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f m\t%.1f kg\n",
			r.ID, r.Name, typeNames(r.Types), r.HeightMeters, r.WeightKilograms)
	}
	return w.Flush()
}

func typeNames(types []pokemon.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return strings.Join(names, "/")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
