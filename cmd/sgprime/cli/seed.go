package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgprime/sgprime/internal/service"
	"github.com/sgprime/sgprime/internal/store"
)

// seedAdminPassword is the initial password for the seeded admin account.
// Deployments are expected to change it on first login.
const seedAdminPassword = "admin123"

func newSeedCmd() *cobra.Command {
	var catalogOnly bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with the default admin and product catalog",
		Long: `Seed creates the default admin account (username "admin") and loads the
production category and product dataset. Running it again is safe: the
admin account is never overwritten and catalog rows are updated in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, catalogOnly)
		},
	}

	cmd.Flags().BoolVar(&catalogOnly, "catalog-only", false, "Seed only categories and products, skip the admin account")

	return cmd
}

func runSeed(cmd *cobra.Command, catalogOnly bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if !catalogOnly {
		hash, err := service.HashPassword(seedAdminPassword)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		created, err := s.SeedAdmin(ctx, hash)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "Created admin account %q (password %q - change it after first login)\n",
				store.DefaultAdminUsername, seedAdminPassword)
		} else {
			fmt.Fprintf(out, "Admin account %q already exists, skipped\n", store.DefaultAdminUsername)
		}
	}

	categories, products, err := s.SeedCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Catalog seeded: %d new categories, %d new products\n", categories, products)
	return nil
}
