package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/finatlas/finatlas/internal/domain"
	"github.com/spf13/cobra"
)

// CollectCmd returns the collect command
func CollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect and index entities",
		Long:  "Run a collection pass over the configured data sources and index the results",
		RunE:  runCollect,
	}

	cmd.Flags().StringP("source", "s", "", "Collect a single source instead of all")
	cmd.Flags().Bool("discover", false, "Index only entities not yet in the store")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.indexer == nil {
		return fmt.Errorf("indexing requires OPENAI_API_KEY")
	}

	source, _ := cmd.Flags().GetString("source")
	discover, _ := cmd.Flags().GetBool("discover")

	var entities []domain.Entity
	if source != "" {
		entities, err = a.collector.CollectSource(ctx, source)
		if err != nil {
			return fmt.Errorf("collection failed: %w", err)
		}
	} else {
		entities = a.collector.CollectAll(ctx)
	}
	log.Printf("collected %d entities", len(entities))

	var indexed int
	if discover {
		indexed, err = a.indexer.IndexNew(ctx, entities)
	} else {
		indexed, err = a.indexer.IndexEntities(ctx, entities)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("collected %d entities, indexed %d\n", len(entities), indexed)
	return nil
}
