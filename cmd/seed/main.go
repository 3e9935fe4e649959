package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"roadmaptracker/internal/config"
	"roadmaptracker/internal/database"
	"roadmaptracker/internal/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	seedFile string
	dryRun   bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load legacy bucket list categories into MongoDB",
	Long: `Replaces the legacy "categories" collection with the categories of a YAML file.
Every item is stored unchecked. Roadmap owners can then copy the categories into
a roadmap with POST /api/roadmaps/:id/migrate.

Reads MONGODB_URI from the environment or .env.`,
	Example: `  seed --file scripts/legacy_categories.yaml
  seed --file scripts/legacy_categories.yaml --dry-run`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVarP(&seedFile, "file", "f", "scripts/legacy_categories.yaml", "YAML file with the legacy categories")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate the file without writing")
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	categories, err := services.ParseLegacySeed(f)
	if err != nil {
		return err
	}

	items := 0
	for _, c := range categories {
		items += len(c.Items)
	}
	log.Printf("📋 Parsed %d categories (%d items) from %s", len(categories), items, seedFile)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	if dryRun {
		// Validate against a throwaway store
		if err := services.SeedLegacy(ctx, services.NewMemoryLegacyCategoryStore(), categories); err != nil {
			return err
		}
		log.Println("✅ Dry run passed, nothing written")
		return nil
	}

	cfg := config.Load()
	if cfg.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}

	db, err := database.NewMongoDB(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := services.SeedLegacy(ctx, services.NewMongoLegacyCategoryStore(db), categories); err != nil {
		return err
	}
	log.Printf("✅ Seeded %d legacy categories into %s.%s", len(categories), db.Name(), database.CollectionLegacyCategories)
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
