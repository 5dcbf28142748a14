package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nutriplan/nutriplan/internal/config"
	"github.com/nutriplan/nutriplan/internal/domain/account"
	"github.com/nutriplan/nutriplan/internal/domain/catalog"
	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/domain/mealplan"
	"github.com/nutriplan/nutriplan/internal/domain/suggestion"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
	"github.com/nutriplan/nutriplan/internal/platform/db"
	"github.com/nutriplan/nutriplan/internal/platform/middleware"
	"github.com/nutriplan/nutriplan/internal/platform/websocket"
)

const version = "0.1.0"

// maxBodySize bounds request bodies; plans are the largest payload.
const maxBodySize = "1M"

func main() {
	rootCmd := &cobra.Command{
		Use:   "nutriplan-server",
		Short: "Dietitian meal-plan API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(catalogCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string, out io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// openPool loads the config and connects to the database.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx, db.DefaultSchema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx, db.DefaultSchema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the food item catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import items from a YAML seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			seed, err := catalog.ParseSeed(f)
			if err != nil {
				return err
			}

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := catalog.NewService(catalog.NewItemRepoPG(pool), newLogger(cfg.Env, os.Stderr))
			res, err := svc.Import(ctx, db.NewTransactor(pool), seed)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d new item(s); %d already existed.\n", res.Created, res.Existing)
			return nil
		},
	}
	importCmd.Flags().String("file", "", "Path to the YAML seed file")
	cmd.AddCommand(importCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog items with derived calories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			items, err := catalog.NewService(catalog.NewItemRepoPG(pool), newLogger(cfg.Env, os.Stderr)).ListAll(ctx)
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	})

	return cmd
}

func printItems(w io.Writer, items []catalog.ItemView) {
	fmt.Fprintf(w, "%-40s %8s %8s %8s %8s %8s\n", "NAME", "KCAL", "PROTEIN", "CARB", "FAT", "FIBER")
	for _, it := range items {
		fmt.Fprintf(w, "%-40s %8d %8.1f %8.1f %8.1f %8.1f\n", it.Name, it.Calories, it.Protein, it.Carb, it.Fat, it.Fiber)
	}
}

// newEcho builds the server with its global middleware and the /api/v1
// group. Every route outside auth.AuthSkipper's public list needs a token.
func newEcho(cfg *config.Config, tokens *auth.TokenManager, logger zerolog.Logger) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		Tokens:     tokens,
		Skipper:    auth.AuthSkipper,
		QueryParam: "access_token",
	}))
	return e, api
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTTTL)
	e, api := newEcho(cfg, tokens, logger)
	e.GET("/health/db", db.HealthHandler(pool))

	tx := db.NewTransactor(pool)
	hub := websocket.NewHub(logger)

	catalogSvc := catalog.NewService(catalog.NewItemRepoPG(pool), logger)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)

	clientSvc := client.NewService(
		client.NewDietitianRepoPG(pool),
		client.NewClientRepoPG(pool),
		client.NewPhysicalRepoPG(pool),
		client.NewMedicalRepoPG(pool),
		loc,
		logger,
	)
	client.NewHandler(clientSvc).RegisterRoutes(api)

	accountSvc := account.NewService(
		clientSvc,
		account.NewAttemptRepoPG(pool),
		tokens,
		account.Lockout{MaxFailures: cfg.LoginMaxFailures, Window: cfg.LoginLockout},
		logger,
	)
	account.NewHandler(accountSvc, clientSvc).RegisterRoutes(api)

	mealSvc := mealplan.NewService(
		mealplan.NewPlanRepoPG(pool),
		mealplan.NewMealRepoPG(pool),
		mealplan.NewMealItemRepoPG(pool),
		catalogSvc,
		clientSvc,
		tx,
		loc,
		logger,
	)
	mealSvc.SetEventPublisher(hub)
	mealplan.NewHandler(mealSvc, clientSvc).RegisterRoutes(api)

	suggestionSvc := suggestion.NewService(mealSvc, clientSvc, logger)
	if cfg.SuggestionEnabled() {
		suggestionSvc.SetEngine(suggestion.NewChatEngine(cfg.SuggestionAPIURL, cfg.SuggestionAPIKey, cfg.SuggestionModel, cfg.SuggestionTimeout))
		logger.Info().Str("model", cfg.SuggestionModel).Msg("suggestion engine enabled")
	}
	suggestion.NewHandler(suggestionSvc, clientSvc).RegisterRoutes(api)

	websocket.NewWebSocketHandler(hub, clientSvc, cfg.CORSOrigins).RegisterRoutes(api)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
