package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitwisdom/site-assistant/internal/service"
	"github.com/bitwisdom/site-assistant/internal/store"
)

func newSyncFAQsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync-faqs",
		Short: "Upsert FAQs from a YAML seed file",
		Long: `sync-faqs matches each seed to an existing FAQ by its exact question.
Matches get the seed's answer, category and keywords and are re-activated;
new questions are inserted with the seed priority, or 5 when it has none.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			seeds, err := service.LoadSeedFile(file)
			if err != nil {
				return err
			}

			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			knowledge := service.NewKnowledgeService(store.NewFAQStore(db), nil, log)
			result, err := knowledge.SyncFAQs(ctx, seeds)
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(result)
			}
			fmt.Printf("Synced %d FAQs: %d inserted, %d updated\n", len(seeds), result.Inserted, result.Updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "configs/faqs.yaml", "YAML seed file")
	return cmd
}
