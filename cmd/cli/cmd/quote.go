// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	pricingsrc "cleanquote/adapters/pricing"
	"cleanquote/core/output"
	"cleanquote/core/proposal"
	"cleanquote/core/types"
	"cleanquote/core/ui"
	"cleanquote/internal/config"
	"cleanquote/internal/logging"
)

var (
	outputFormat  string
	showLineItems bool
	currencyArg   string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote <proposal>",
	Short: "Price a proposal",
	Long: `Price every service of a proposal file (YAML or JSON) and print the totals.

Example proposal:
  name: Harbor Office
  services:
    - service: saniscrub
      frequency: monthly
      contract_months: 12
      quantities:
        fixtures: 10
    - service: carpet
      frequency: quarterly
      quantities:
        carpetSqFt: 1300

Examples:
  cleanquote quote proposal.yaml
  cleanquote quote --format json proposal.yaml
  cleanquote quote --line-items --source file proposal.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json, yaml)")
	quoteCmd.Flags().BoolVarP(&showLineItems, "line-items", "l", false, "show each service's line items")
	quoteCmd.Flags().StringVar(&currencyArg, "currency", "", "quote currency (USD, EUR, GBP)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get()

	format := output.Format(cfg.Output.DefaultFormat)
	if outputFormat != "" {
		format = output.Format(outputFormat)
	}
	formatter, err := output.NewRegistry().Get(format)
	if err != nil {
		return err
	}

	p, err := proposal.ParseFile(args[0])
	if err != nil {
		return err
	}

	logger := logging.Component("quote")
	source, cleanup, err := pricingsrc.NewFromConfig(ctx, cfg.Pricing, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	currency := cfg.Pricing.Currency
	if currencyArg != "" {
		currency = types.Currency(currencyArg)
	}

	loader := &proposal.Loader{
		Source:       source,
		Logger:       logger,
		Currency:     currency,
		FetchTimeout: time.Duration(cfg.Pricing.FetchTimeoutSeconds) * time.Second,
	}

	// progress and warnings go to stderr so machine-readable output stays clean
	interactive := format == output.FormatCLI && isatty.IsTerminal(os.Stderr.Fd())
	status := ui.NewWriter(cmd.ErrOrStderr(), cfg.Output.NoColor)
	if verbose {
		status.SetVerbosity(2)
	}

	session, _, err := ui.NewQuoteRunner(status, loader, interactive).Run(ctx, p)
	if err != nil {
		return err
	}
	defer session.Close()

	if r, ok := source.(pricingsrc.StatsReporter); ok {
		status.Debug("%s source: %s", source.Name(), r.Stats())
	}

	result := &output.Result{
		Summary:       session.Summary(),
		Statuses:      session.Statuses(),
		ShowLineItems: showLineItems || cfg.Output.ShowLineItems,
		NoColor:       cfg.Output.NoColor,
	}
	if err := formatter.Render(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}
