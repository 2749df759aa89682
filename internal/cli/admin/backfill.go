package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/loreweave/loreweave/internal/config"
	"github.com/loreweave/loreweave/internal/database"
	"github.com/loreweave/loreweave/internal/slack"
)

// BackfillCmd returns the backfill command
func BackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill <channel-id>",
		Short: "Backfill a channel's message history",
		Long:  "Ingest a channel's past messages into the knowledge base without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackfill,
	}

	cmd.Flags().Int("max-messages", 0, "Override the maximum number of messages to ingest")

	return cmd
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	channelID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasSlack() {
		return fmt.Errorf("LOREWEAVE_SLACK_BOT_TOKEN and LOREWEAVE_SLACK_SIGNING_SECRET are required")
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("LOREWEAVE_OPENAI_API_KEY is required")
	}

	if maxMessages, _ := cmd.Flags().GetInt("max-messages"); maxMessages > 0 {
		cfg.BackfillMaxMessages = maxMessages
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	slackClient, err := slack.New(ctx, cfg.SlackBotToken, cfg.SlackWorkspaceURL)
	if err != nil {
		return fmt.Errorf("failed to connect to slack: %w", err)
	}

	st, err := buildStack(ctx, cfg, pool, slackClient)
	if err != nil {
		return err
	}

	log.Printf("backfilling channel %s (up to %d messages)", channelID, cfg.BackfillMaxMessages)
	if err := st.backfiller.BackfillChannel(ctx, channelID); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	return nil
}
