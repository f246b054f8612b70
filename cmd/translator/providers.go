package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nulzo/translation-router/internal/cli"
	"github.com/nulzo/translation-router/internal/platform/logger"
	"github.com/nulzo/translation-router/internal/router"
)

func newProvidersCmd(root *rootOptions) *cobra.Command {
	var (
		target string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show the provider chain and which providers are usable",
		Long: `List the configured providers in the order a request would try them.
With --target, preferred languages are applied to the ordering.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := router.New(root.cfg.Router, router.WithLogger(logger.Get()))
			if err != nil {
				return err
			}
			if asJSON {
				return printProvidersJSON(cmd.OutOrStdout(), rt, target)
			}
			printProviders(cmd.OutOrStdout(), rt, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Order for this target language")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func byName(rt *router.Router) map[string]router.ProviderInfo {
	infos := rt.Providers()
	out := make(map[string]router.ProviderInfo, len(infos))
	for _, p := range infos {
		out[p.Name] = p
	}
	return out
}

func printProviders(w io.Writer, rt *router.Router, target string) {
	infos := byName(rt)

	header := "Provider chain"
	if target != "" {
		header += " for " + target
	}
	fmt.Fprintln(w, cli.Stylize(header, cli.Bold))

	for i, name := range rt.Order(target) {
		p := infos[name]
		state := cli.CheckMark() + " available"
		if p.Skipped {
			state = cli.WarningSign() + " skipped, no credentials"
		}
		fmt.Fprintf(w, "  %s %d. %-12s %s  %s  %s\n",
			cli.Arrow(), i+1, name,
			cli.Stylize(fmt.Sprintf("tier %d", p.Tier), cli.DimCode),
			cli.Stylize(fmt.Sprintf("batch %d", p.BatchSize), cli.DimCode),
			state,
		)
	}
}

func printProvidersJSON(w io.Writer, rt *router.Router, target string) error {
	infos := byName(rt)
	ordered := make([]router.ProviderInfo, 0, len(infos))
	for _, name := range rt.Order(target) {
		ordered = append(ordered, infos[name])
	}

	data, err := json.MarshalIndent(map[string]any{
		"target":    target,
		"providers": ordered,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, cli.HighlightJSON(string(data)))
	return err
}
