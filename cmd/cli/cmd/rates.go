// Package cmd - rate config management
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	pricingsrc "cleanquote/adapters/pricing"
	"cleanquote/adapters/ratecard"
	"cleanquote/core/diff"
	"cleanquote/core/pricing"
	"cleanquote/core/services"
	"cleanquote/core/ui"
	"cleanquote/db"
	"cleanquote/internal/config"
	cqerrors "cleanquote/internal/errors"
	"cleanquote/internal/logging"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Rate config management",
	Long: `Inspect and publish the rate configs services are priced from.

Rate cards are HCL files, one per service:

  ratecard "saniscrub" {
    version     = "2025-06"
    fixtureRate = { monthly = 25, bimonthly = 35, quarterly = 40 }
    minimum     = { monthly = 175, bimonthly = 200, quarterly = 250 }
  }`,
}

var ratesShowCmd = &cobra.Command{
	Use:   "show <service>",
	Short: "Show the rates a service is priced from",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatesShow,
}

var ratesExportCmd = &cobra.Command{
	Use:   "export [service...]",
	Short: "Write built-in rates as rate cards",
	Long: `Write the built-in rates of the given services (all when none are given)
as HCL rate cards into the rate card directory.`,
	RunE: runRatesExport,
}

var ratesImportCmd = &cobra.Command{
	Use:   "import <ratecard.hcl>...",
	Short: "Publish rate cards to the config store",
	Long: `Parse rate cards and publish each as the active config of its service.
The previous version stays in the history and can be re-activated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRatesImport,
}

var ratesDiffCmd = &cobra.Command{
	Use:   "diff <ratecard.hcl>",
	Short: "Compare a rate card with the active config",
	Long: `Show which values a rate card would change against the active config
of the configured pricing source, or against the built-in rates when the
service has none.`,
	Args: cobra.ExactArgs(1),
	RunE: runRatesDiff,
}

var ratesHistoryCmd = &cobra.Command{
	Use:   "history <service>",
	Short: "List published versions of a service's config",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatesHistory,
}

var ratesActivateCmd = &cobra.Command{
	Use:   "activate <version-id>",
	Short: "Make a published version active again",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatesActivate,
}

var (
	ratesDir   string
	ratesForce bool
)

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.AddCommand(ratesShowCmd)
	ratesCmd.AddCommand(ratesExportCmd)
	ratesCmd.AddCommand(ratesImportCmd)
	ratesCmd.AddCommand(ratesDiffCmd)
	ratesCmd.AddCommand(ratesHistoryCmd)
	ratesCmd.AddCommand(ratesActivateCmd)

	ratesExportCmd.Flags().StringVar(&ratesDir, "dir", "", "rate card directory (default from config)")
	ratesExportCmd.Flags().BoolVar(&ratesForce, "force", false, "overwrite existing rate cards")
}

func runRatesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	rules, err := services.Default().Lookup(args[0])
	if err != nil {
		return err
	}

	source, cleanup, err := pricingsrc.NewFromConfig(ctx, cfg.Pricing, logging.Component("rates"))
	if err != nil {
		return err
	}
	defer cleanup()

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)

	var doc *pricing.Document
	if source != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Pricing.FetchTimeoutSeconds)*time.Second)
		doc, err = source.ActiveConfig(fetchCtx, rules.ID)
		cancel()
		if err != nil {
			w.Warning("%s", err)
			doc = nil
		}
	}
	resolved := pricing.Resolve(rules, doc)

	w.Header(rules.Name)
	version := resolved.Version
	if version == "" {
		version = "-"
	}
	w.Println("Source:  %s", resolved.Source)
	w.Println("Version: %s", version)
	w.Println("Contract months: %d-%d (default %d)",
		resolved.ContractLimits.MinMonths, resolved.ContractLimits.MaxMonths, resolved.ContractLimits.DefaultMonths)
	w.Println("")

	table := w.NewTable("Rate", "Value", "Built-in", "").AlignRight(1, 2)
	for _, key := range rules.RateKeys() {
		note := ""
		if doc != nil && slices.Contains(resolved.Degraded, key) {
			note = w.Color(ui.Yellow, "default")
		}
		table.AddRow(key, resolved.Rate(key).String(), rules.Defaults[key].String(), note)
	}
	table.Render()

	if doc != nil && len(resolved.Degraded) > 0 {
		w.Println("")
		w.Warning("%d values missing or invalid, built-in rates used", len(resolved.Degraded))
	}
	return nil
}

func runRatesExport(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	dir := ratesDir
	if dir == "" {
		dir = cfg.Pricing.RatesDir
	}
	src := ratecard.NewFileSource(dir)
	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)

	reg := services.Default()
	builtin := pricingsrc.NewBuiltinSource(reg)
	ids := args
	if len(ids) == 0 {
		ids = reg.IDs()
	}

	for _, id := range ids {
		if _, err := reg.Lookup(id); err != nil {
			return err
		}
		if _, err := os.Stat(src.Path(id)); err == nil && !ratesForce {
			w.Warning("%s exists, skipping (use --force)", src.Path(id))
			continue
		}
		doc, err := builtin.ActiveConfig(cmd.Context(), id)
		if err != nil {
			return err
		}
		if err := src.Write(doc); err != nil {
			return err
		}
		w.Success("%s", src.Path(id))
	}
	return nil
}

func runRatesImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()
	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)

	store, err := db.OpenStore(ctx, cfg.Pricing.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := services.Default()
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		doc, err := ratecard.Parse(filepath.Base(path), src)
		if err != nil {
			return err
		}
		rules, err := reg.Lookup(doc.ServiceID)
		if err != nil {
			return cqerrors.Wrapf(cqerrors.TypeInvalidInput, err, "%s", path)
		}

		resolved := pricing.Resolve(rules, doc)
		rec, err := store.Publish(ctx, doc)
		if err != nil {
			return err
		}
		w.Success("%s %s published (%s)", rec.ServiceID, rec.Version, rec.ID)
		if len(resolved.Degraded) > 0 {
			w.Warning("built-in rates used for: %s", strings.Join(resolved.Degraded, ", "))
		}
	}
	return nil
}

func runRatesDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	candidate, err := ratecard.Parse(filepath.Base(args[0]), src)
	if err != nil {
		return err
	}
	rules, err := services.Default().Lookup(candidate.ServiceID)
	if err != nil {
		return err
	}

	source, cleanup, err := pricingsrc.NewFromConfig(ctx, cfg.Pricing, logging.Component("rates"))
	if err != nil {
		return err
	}
	defer cleanup()

	var active *pricing.Document
	if source != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Pricing.FetchTimeoutSeconds)*time.Second)
		active, err = source.ActiveConfig(fetchCtx, rules.ID)
		cancel()
		if err != nil && !cqerrors.IsType(err, cqerrors.TypeNotFound) {
			return err
		}
	}

	before := pricing.Resolve(rules, active)
	result := diff.NewDiffer(0).Diff(before, pricing.Resolve(rules, candidate))

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	base := before.Source
	if before.Version != "" {
		base += " " + before.Version
	}
	w.Header(fmt.Sprintf("%s: %s → %s", rules.Name, base, candidate.Version))

	if !result.HasChanges() {
		w.Success("No changes (%d values compared)", result.UnchangedCount)
		return nil
	}

	table := w.NewTable("", "Value", "Before", "After", "Change").AlignRight(2, 3, 4)
	marks := map[diff.ChangeType]string{
		diff.ChangeAdded:    w.Color(ui.Green, "+"),
		diff.ChangeRemoved:  w.Color(ui.Red, "-"),
		diff.ChangeModified: w.Color(ui.Yellow, "~"),
	}
	for _, group := range [][]*diff.ValueDiff{result.Added, result.Removed, result.Changed} {
		for _, vd := range group {
			change := vd.Delta.String()
			if !vd.Before.IsZero() {
				change = diff.FormatPercent(vd.DeltaPercent)
			}
			table.AddRow(marks[vd.ChangeType], vd.Key, vd.Before.String(), vd.After.String(), change)
		}
	}
	table.Render()
	w.Println("")
	w.Info("%d added, %d falling back to built-in, %d modified",
		result.AddedCount, result.RemovedCount, result.ChangedCount)
	return nil
}

func runRatesHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	if _, err := services.Default().Lookup(args[0]); err != nil {
		return err
	}

	store, err := db.OpenStore(ctx, cfg.Pricing.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.History(ctx, args[0])
	if err != nil {
		return err
	}

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	if len(history) == 0 {
		w.Info("No published configs for %s", args[0])
		return nil
	}

	table := w.NewTable("", "Version", "ID", "Published")
	for _, rec := range history {
		mark := ""
		if rec.Active {
			mark = "*"
		}
		table.AddRow(mark, rec.Version, rec.ID, rec.CreatedAt.Local().Format(time.DateTime))
	}
	table.Render()
	return nil
}

func runRatesActivate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Get()

	store, err := db.OpenStore(ctx, cfg.Pricing.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Activate(ctx, args[0])
	if err != nil {
		return err
	}
	ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor).Success("%s %s is active", rec.ServiceID, rec.Version)
	return nil
}
