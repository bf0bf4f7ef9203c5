package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Sternrassler/pokedex-loader/pkg/pokemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newShowCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name|id>",
		Short: "Print one Pokémon",
		Long: `Resolve a single Pokémon by name or numeric id.

Examples:
  pokedex show pikachu
  pokedex show 25 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, v, args[0])
		},
	}

	cmd.Flags().Bool("json", false, "output as JSON")
	bindFlags(v, "show", cmd.Flags())

	return cmd
}

func runShow(cmd *cobra.Command, v *viper.Viper, identifier string) error {
	ctx := cmd.Context()
	l, cleanup, err := newLoader(ctx, v)
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := l.ResolveDetail(ctx, identifier)
	if err != nil {
		return err
	}

	if v.GetBool("show.json") {
		return writeJSON(cmd.OutOrStdout(), record)
	}
	return printRecord(cmd.OutOrStdout(), record)
}

func printRecord(out io.Writer, r pokemon.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#%d %s\n", r.ID, r.Name)
	fmt.Fprintf(w, "Types:\t%s\n", typeNames(r.Types))
	fmt.Fprintf(w, "Height:\t%.1f m\n", r.HeightMeters)
	fmt.Fprintf(w, "Weight:\t%.1f kg\n", r.WeightKilograms)
	fmt.Fprintf(w, "Abilities:\t%s\n", strings.Join(r.Abilities, ", "))
	fmt.Fprintf(w, "Image:\t%s\n", r.ImageURL)
	if r.AnimatedImageURL != "" {
		fmt.Fprintf(w, "Animated:\t%s\n", r.AnimatedImageURL)
	}
	fmt.Fprintln(w, "Stats:")
	for _, s := range r.Stats {
		fmt.Fprintf(w, "  %s\t%d\n", s.Name, s.Value)
	}
	return w.Flush()
}
