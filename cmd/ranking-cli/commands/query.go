package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tastemap/ranking-engine/cmd/ranking-cli/ui"
	"github.com/tastemap/ranking-engine/internal/ranking"
)

var (
	querySentence string
	queryKeywords []string
	queryLat      float64
	queryLon      float64
	queryRange    float64
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a ranking query",
	Long:  "Resolve a sentence or keyword list against the index and print the ranked top restaurants.",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&querySentence, "sentence", "s", "", "free-text query sentence")
	queryCmd.Flags().StringSliceVarP(&queryKeywords, "keywords", "k", nil, "explicit keywords (comma separated)")
	queryCmd.Flags().Float64Var(&queryLat, "lat", 0, "user latitude")
	queryCmd.Flags().Float64Var(&queryLon, "lon", 0, "user longitude")
	queryCmd.Flags().Float64Var(&queryRange, "range", 0, "radius filter in km (requires --lat/--lon)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if querySentence == "" && len(queryKeywords) == 0 {
		return fmt.Errorf("either --sentence or --keywords is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	query := ranking.Query{Sentence: querySentence, Keywords: queryKeywords}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		query.Position = &ranking.Position{Lat: queryLat, Lon: queryLon}
	}
	if cmd.Flags().Changed("range") {
		radius := queryRange
		query.RadiusKm = &radius
	}

	result, err := a.Engine.Rank(ctx, query)
	if err != nil {
		return fmt.Errorf("ranking query: %w", err)
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.Meta.Message != "" {
		fmt.Println(ui.Warn("%s", result.Meta.Message))
		return nil
	}

	fmt.Println(ui.Title("Resolved keywords: %v", result.Meta.ResolvedKeywords))
	fmt.Println()
	for _, c := range result.Candidates {
		line := fmt.Sprintf("%2d. %s  score=%.2f match=%d", c.Rank, c.Name, c.CompositeScore, c.MatchScore)
		if c.DistanceKm != nil {
			line += fmt.Sprintf("  %.1fkm", *c.DistanceKm)
		}
		fmt.Println(line)
		if c.Address != "" {
			fmt.Println(ui.Faint("    %s", c.Address))
		}
	}
	return nil
}
