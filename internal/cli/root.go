// Package cli defines the cobra command tree for reportctl.
package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"homescout/server/config"
	"homescout/server/internal/app"
	"homescout/server/internal/models"
)

var (
	flagEnvFile string
	flagVerbose bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Search listings and generate market reports",
		Long:          "Run property searches and build listing, market or investment reports using the same pipeline as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline activity to stderr")

	root.AddCommand(
		newSearchCmd(),
		newReportCmd(),
	)

	return root
}

// openPipeline loads configuration and builds the pipeline. Logs go to
// stderr so stdout carries only command output.
func openPipeline(cmd *cobra.Command) (*app.Pipeline, error) {
	cfg, err := config.LoadConfig(flagEnvFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := app.NewLogger(cfg)
	if flagVerbose {
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetOutput(io.Discard)
	}

	return app.NewPipeline(cfg, logger)
}

// closePipeline closes the pipeline, reporting any error to stderr.
func closePipeline(cmd *cobra.Command, p *app.Pipeline) {
	if err := p.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing search log: %v\n", err)
	}
}

// addQueryFlags binds the search filters shared by every command.
func addQueryFlags(cmd *cobra.Command, q *models.SearchQuery) {
	cmd.Flags().StringVarP(&q.Location, "location", "l", "", "city and state, or postal code (required)")
	cmd.Flags().StringVarP(&q.PropertyType, "type", "t", "", "property type (house, condo, townhome, ...)")
	cmd.Flags().Int64Var(&q.MinPrice, "min-price", 0, "minimum price")
	cmd.Flags().Int64Var(&q.MaxPrice, "max-price", 0, "maximum price")
	cmd.Flags().IntVar(&q.Bedrooms, "beds", 0, "minimum bedrooms")
	cmd.Flags().Float64Var(&q.Bathrooms, "baths", 0, "minimum bathrooms")
	cmd.Flags().IntVar(&q.Limit, "limit", models.DefaultLimit, "maximum listings to fetch")
	cmd.Flags().IntVar(&q.DaysOnMarket, "days-on-market", 0, "only listings at most this many days old")
	cmd.Flags().StringVar(&q.PriceChange, "price-change", "", "price change refinement (reduced, new)")
	_ = cmd.MarkFlagRequired("location")
}
