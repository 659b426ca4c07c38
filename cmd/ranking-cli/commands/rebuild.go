package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tastemap/ranking-engine/cmd/ranking-cli/ui"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the keyword index from the store",
	RunE:  runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	spin := ui.NewSpinner("Rebuilding keyword index...")
	spin.Start()
	start := time.Now()
	err = a.Index.Rebuild(ctx)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	count, err := a.Restaurants.Count(ctx)
	if err != nil {
		return fmt.Errorf("count restaurants: %w", err)
	}

	fmt.Println(ui.Success("Index rebuilt: %d keywords from %d restaurants in %s",
		a.Index.Len(), count, time.Since(start).Round(time.Millisecond)))
	return nil
}
