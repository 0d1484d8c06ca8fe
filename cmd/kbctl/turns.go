package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitwisdom/site-assistant/internal/events"
)

func newTurnsCmd() *cobra.Command {
	var (
		mode  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "turns",
		Short: "Show chat-turn events from the NATS stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client, err := events.Connect(ctx, events.Config{
				URL:      cfg.NATSURL,
				CAFile:   cfg.NATSCAFile,
				CertFile: cfg.NATSCertFile,
				KeyFile:  cfg.NATSKeyFile,
				Token:    cfg.NATSToken,
			}, log)
			if err != nil {
				return err
			}
			defer client.Close()

			turns, err := events.NewTurnStream(client).RecentTurns(ctx, mode, limit)
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(turns)
			}
			for _, t := range turns {
				fmt.Printf("%s  %-9s  faqs=%-5t website=%-5t  session=%s\n",
					t.CreatedAt.Format(time.RFC3339), t.Mode, t.Sources.FAQs, t.Sources.Website, t.SessionID)
			}
			fmt.Printf("%d events\n", len(turns))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "only turns answered in this mode (generated, fallback, error)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	return cmd
}
