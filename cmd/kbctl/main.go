// Package main provides kbctl, the knowledge-base maintenance CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitwisdom/site-assistant/internal/config"
	"github.com/bitwisdom/site-assistant/internal/store"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

var (
	outputJSON bool
	verbose    bool

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Maintain the site assistant knowledge base",
	Long: `kbctl seeds and refreshes the knowledge the site assistant answers from.

- sync-faqs upserts FAQs from a YAML seed file
- crawl walks the marketing site into the content store
- scrape refreshes an explicit list of pages
- turns reads recent chat-turn events from NATS`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		var err error
		if verbose {
			log, err = logger.NewDevelopment()
		} else {
			log, err = logger.New(cfg.LogLevel)
		}
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newSyncFAQsCmd())
	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newScrapeCmd())
	rootCmd.AddCommand(newTurnsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects to MongoDB and ensures indexes exist.
func openStore(ctx context.Context) (*store.MongoDB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := store.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(connectCtx); err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	return db, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
