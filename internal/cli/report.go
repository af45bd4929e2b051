package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"homescout/server/config"
	"homescout/server/internal/export"
	"homescout/server/internal/models"
	"homescout/server/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		q       models.SearchQuery
		variant string
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a report file",
		Long:  "Search listings for a location and write a property listings, market intelligence or investment analysis report.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, q, variant, format, output)
		},
	}
	addQueryFlags(cmd, &q)
	cmd.Flags().StringVar(&variant, "variant", string(report.VariantPropertyListings), "report variant (property_listings|market_intelligence|investment_analysis)")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatXLSX), "output format (xlsx|csv|json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <location>-<variant>-<date>.<ext> in the current directory)")

	return cmd
}

func runReport(cmd *cobra.Command, q models.SearchQuery, variantName, formatName, output string) error {
	variant, err := report.ParseVariant(variantName)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(cmd, p)

	props, err := p.Search.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	rep, err := p.Synthesizer.Build(variant, q.Location, props)
	if err != nil {
		return err
	}
	data, err := p.Exporter.Export(rep.Sheets, format)
	if err != nil {
		return err
	}

	if output == "" {
		output = fmt.Sprintf("%s-%s-%s%s",
			config.NormalizeCity(q.Location), variant, time.Now().UTC().Format("20060102"), export.FileExtension(format))
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d listings, %d sheets)\n", output, len(props), len(rep.Sheets))
	return nil
}
