package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/repo/postgres"
	"github.com/noid254/nikosoko/internal/seed"
	"github.com/noid254/nikosoko/pkg/config"
	"github.com/noid254/nikosoko/pkg/database"
	"github.com/noid254/nikosoko/pkg/logger"
)

var applySeed bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Validate the seed catalogue",
	Long: `Parse and validate the seed catalogue and print what it contains.

With --apply the providers are upserted into the Postgres directory at
DATABASE_URL, overwriting rows with the same id.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&applySeed, "apply", false, "Upsert seeded providers into Postgres")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	data, err := seed.Load(seedPath(cfg))
	if err != nil {
		return err
	}

	summary := data.Summary()
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "%-16s %d\n", name, summary[name])
	}

	if !applySeed {
		return nil
	}

	ctx := cmd.Context()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}
	return seedProviders(ctx, postgres.NewProvidersRepo(pool), data, true)
}

// seedProviders writes the seeded providers into r. Unless overwrite is set,
// a directory that already holds providers is left alone.
func seedProviders(ctx context.Context, r repo.ProviderRepository, data *seed.Data, overwrite bool) error {
	if !overwrite {
		existing, err := r.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list providers: %w", err)
		}
		if len(existing) > 0 {
			return nil
		}
	}
	for _, p := range data.Providers {
		if _, err := r.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to seed provider %d: %w", p.ID, err)
		}
	}
	logger.InfoContext(ctx, "Seeded providers", "count", len(data.Providers))
	return nil
}
