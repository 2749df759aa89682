package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	gopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/loreweave/loreweave/internal/api/handlers"
	"github.com/loreweave/loreweave/internal/config"
	"github.com/loreweave/loreweave/internal/database"
	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/extract"
	"github.com/loreweave/loreweave/internal/jobs"
	"github.com/loreweave/loreweave/internal/openai"
	"github.com/loreweave/loreweave/internal/repository"
	"github.com/loreweave/loreweave/internal/server"
	"github.com/loreweave/loreweave/internal/service"
	"github.com/loreweave/loreweave/internal/slack"
	"github.com/loreweave/loreweave/internal/storage"
	"github.com/loreweave/loreweave/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot server",
		Long:  "Start the loreweave event server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	slackClient, err := slack.New(ctx, cfg.SlackBotToken, cfg.SlackWorkspaceURL)
	if err != nil {
		return fmt.Errorf("failed to connect to slack: %w", err)
	}
	log.Printf("connected to slack as %s", slackClient.BotUserID())

	st, err := buildStack(ctx, cfg, pool, slackClient)
	if err != nil {
		return err
	}

	worker := jobs.NewBackfillWorker(st.backfiller, 16)
	go worker.Start(ctx)
	log.Println("backfill worker started")

	retention := service.NewRetentionController(st.store)
	eventHandler := slack.NewEventHandler(slackClient.BotUserID(), st.pipeline, st.responder, retention, worker)

	router := server.NewRouter(server.RouterConfig{
		SigningSecret: cfg.SlackSigningSecret,
		EventHandler:  handlers.NewEventHandler(eventHandler),
		ChunkHandler:  handlers.NewChunkHandler(st.repo, st.store),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// stack holds the wired retrieval pipeline shared by serve and backfill.
type stack struct {
	repo       *repository.ChunkRepository
	store      *service.ContentStore
	pipeline   *service.IngestionPipeline
	responder  *service.Responder
	backfiller *service.Backfiller
}

func buildStack(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, slackClient *slack.Client) (*stack, error) {
	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      gopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	repo := repository.NewChunkRepository(pool)
	embedder := service.NewEmbedderWithBudget(aiClient, cfg.EmbedMaxTokens, domain.DefaultEstimator())
	store := service.NewContentStoreWithConfig(repo, embedder, service.ChunkConfig{
		MaxTokens: cfg.ChunkMaxTokens,
		Estimator: domain.DefaultEstimator(),
	})

	var archiver extract.Archiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	webExtractor := extract.NewWebExtractor(aiClient, cfg.ExtractionTimeout)
	fileExtractors := []service.FileExtractor{
		extract.NewPDFExtractor(slackClient, archiver, aiClient, cfg.ExtractionTimeout),
		extract.NewImageExtractor(slackClient, archiver, aiClient, cfg.ExtractionTimeout),
	}

	pipeline := service.NewIngestionPipeline(slackClient, webExtractor, fileExtractors, store)

	assembler := service.NewContextAssemblerWithConfig(store, slackClient.Permalink, service.ContextConfig{
		CandidateLimit: cfg.SearchLimit,
		MinSimilarity:  cfg.MinSimilarity,
	})
	responder := service.NewResponder(assembler, aiClient, slackClient, cfg.ContextMaxTokens)

	backfiller := service.NewBackfillerWithConfig(slackClient, pipeline, service.BackfillConfig{
		PageSize:    cfg.BackfillPageSize,
		MaxMessages: cfg.BackfillMaxMessages,
		PageRate:    rate.Every(cfg.BackfillCooldown),
	})

	return &stack{
		repo:       repo,
		store:      store,
		pipeline:   pipeline,
		responder:  responder,
		backfiller: backfiller,
	}, nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
