package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/liminalsalt/salt/model/openrouter"
)

var modelsFilter string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Browse the OpenRouter model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		entries, err := app.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		if modelsFilter != "" {
			filtered := entries[:0]
			for _, e := range entries {
				if strings.Contains(strings.ToLower(e.ID), strings.ToLower(modelsFilter)) {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}

		providers, byProvider := openrouter.GroupByProvider(entries)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		for _, p := range providers {
			fmt.Fprintln(w, headerStyle.Render(p))
			for _, e := range byProvider[p] {
				fmt.Fprintf(w, "  %s\t%s\t%s\n",
					e.ID,
					dimStyle.Render(fmt.Sprintf("%dk ctx", e.ContextLength/1000)),
					dimStyle.Render(openrouter.FormatPricing(e.Pricing)))
			}
		}
		return w.Flush()
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsFilter, "filter", "f", "", "Only show model ids containing this substring")
	rootCmd.AddCommand(modelsCmd)
}
