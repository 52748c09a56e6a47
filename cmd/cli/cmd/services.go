// Package cmd - services command
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cleanquote/core/services"
	"cleanquote/core/ui"
	"cleanquote/internal/config"
)

var servicesJSON bool

// servicesCmd lists the priceable services
var servicesCmd = &cobra.Command{
	Use:   "services [service]",
	Short: "List services and their inputs",
	Long: `List every priceable service, or show one service's quantity fields,
rate keys and built-in rates.

Examples:
  cleanquote services
  cleanquote services carpet`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServices,
}

func init() {
	rootCmd.AddCommand(servicesCmd)
	servicesCmd.Flags().BoolVar(&servicesJSON, "json", false, "print JSON")
}

func runServices(cmd *cobra.Command, args []string) error {
	reg := services.Default()
	cfg := config.Get()
	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)

	if len(args) == 0 {
		if servicesJSON {
			return printJSON(cmd, reg.IDs())
		}
		table := w.NewTable("ID", "Name", "Frequencies", "Quantities")
		for _, rules := range reg.GetAll() {
			freqs := make([]string, len(rules.Frequencies))
			for i, f := range rules.Frequencies {
				freqs[i] = string(f)
			}
			table.AddRow(rules.ID, rules.Name, strings.Join(freqs, ", "), strings.Join(rules.QuantityFields(), ", "))
		}
		table.Render()
		return nil
	}

	rules, err := reg.Lookup(args[0])
	if err != nil {
		return err
	}
	if servicesJSON {
		return printJSON(cmd, rules.DefaultConfig())
	}

	w.Header(rules.Name)
	w.Println("Default frequency: %s", rules.DefaultFrequency)
	w.Println("Quantities:        %s", strings.Join(rules.QuantityFields(), ", "))
	w.Println("Contract months:   %d-%d (default %d)", rules.Contract.MinMonths, rules.Contract.MaxMonths, rules.Contract.DefaultMonths)
	w.Println("")

	table := w.NewTable("Rate", "Built-in").AlignRight(1)
	for _, key := range rules.RateKeys() {
		table.AddRow(key, rules.Defaults[key].String())
	}
	table.Render()
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

