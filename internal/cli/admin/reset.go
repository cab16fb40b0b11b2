package admin

import (
	"context"
	"fmt"

	"github.com/finatlas/finatlas/internal/domain"
	"github.com/spf13/cobra"
)

// ResetCmd returns the reset command
func ResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every indexed entity",
		Long:  "Drop all entities from the vector store. Destructive, requires --confirm.",
		RunE:  runReset,
	}

	cmd.Flags().Bool("confirm", false, "Confirm the reset")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetBool("confirm")
	if !confirm {
		return domain.ErrResetNotConfirmed
	}

	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Println("store reset complete")
	return nil
}
