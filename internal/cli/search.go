package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"homescout/server/internal/models"
)

func newSearchCmd() *cobra.Command {
	var q models.SearchQuery

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search listings and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, q)
		},
	}
	addQueryFlags(cmd, &q)

	return cmd
}

func runSearch(cmd *cobra.Command, q models.SearchQuery) error {
	p, err := openPipeline(cmd)
	if err != nil {
		return err
	}
	defer closePipeline(cmd, p)

	props, origin, err := p.Search.SearchWithOrigin(cmd.Context(), q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"location":   q.Location,
		"origin":     origin,
		"count":      len(props),
		"properties": props,
	})
}
