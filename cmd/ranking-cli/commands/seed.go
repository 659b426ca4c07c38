package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tastemap/ranking-engine/cmd/ranking-cli/ui"
	"github.com/tastemap/ranking-engine/internal/storage"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load restaurants from a JSON file into the store",
	Long: `Load restaurant records from a JSON array file into the configured
store. Each record carries name, address, coordinates, keywords, and review
statistics. The keyword index is rebuilt afterwards.`,
	RunE: runSeed,
}

// seedRecord is the on-disk restaurant shape.
type seedRecord struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	Keywords       []string `json:"keywords"`
	ReviewCount    int      `json:"reviewCount"`
	TotalScore     float64  `json:"totalScore"`
	NaverScore     float64  `json:"naverScore"`
	SentimentScore float64  `json:"sentimentScore"`
	Preview        string   `json:"preview"`
	URL            string   `json:"url"`
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON file with restaurant records (required)")
	seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := ui.NewProgressBar(int64(len(records)), "Seeding restaurants")
	for i, rec := range records {
		if rec.Name == "" {
			return fmt.Errorf("record %d: name is required", i)
		}

		keywordsRaw := ""
		if len(rec.Keywords) > 0 {
			raw, err := json.Marshal(rec.Keywords)
			if err != nil {
				return fmt.Errorf("record %d: encode keywords: %w", i, err)
			}
			keywordsRaw = string(raw)
		}

		restaurant := &storage.Restaurant{
			Name:           rec.Name,
			Address:        rec.Address,
			Lat:            rec.Lat,
			Lon:            rec.Lon,
			KeywordsRaw:    keywordsRaw,
			ReviewCount:    rec.ReviewCount,
			TotalScore:     rec.TotalScore,
			NaverScore:     rec.NaverScore,
			SentimentScore: rec.SentimentScore,
			Preview:        rec.Preview,
			URL:            rec.URL,
		}
		if err := a.Restaurants.Create(ctx, restaurant); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, rec.Name, err)
		}
		bar.Add(1)
	}
	bar.Finish()

	if err := a.Index.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	fmt.Println(ui.Success("Seeded %d restaurants, index now holds %d keywords", len(records), a.Index.Len()))
	return nil
}
