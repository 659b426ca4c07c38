package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var keywordsSearch string

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List the indexed keyword vocabulary",
	RunE:  runKeywords,
}

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsSearch, "search", "s", "", "filter keywords by substring")
	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Index.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	keys := a.Index.Keys()
	if keywordsSearch != "" {
		keys = a.Index.Search(keywordsSearch, a.Index.Len())
	}

	for _, k := range keys {
		fmt.Println(k)
	}
	fmt.Printf("\n%d keywords\n", len(keys))
	return nil
}
