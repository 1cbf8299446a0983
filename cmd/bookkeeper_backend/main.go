package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/core/services"
	"github.com/pfinbooks/bookkeeper_app/internal/handlers"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
	"github.com/pfinbooks/bookkeeper_app/internal/repositories/database/pgsql"
	"github.com/pfinbooks/bookkeeper_app/pkg/config"
	"github.com/pfinbooks/bookkeeper_app/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	if cfg.RunMigrations {
		if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT value", slog.String("value", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svcContainer := buildServices(dbPool)
	handlers.RegisterRoutes(r, cfg, svcContainer)

	// In-process recurring generator. A tick is idempotent against concurrent
	// generators, so running one here alongside the on-demand endpoint is safe.
	if cfg.RecurringTickInterval > 0 {
		go runRecurringTicker(logger, svcContainer.Recurring, cfg.RecurringTickInterval)
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildServices(dbPool *pgxpool.Pool) *portssvc.ServiceContainer {
	repos := pgsql.NewRepositoryProvider(dbPool)

	accountSvc := services.NewAccountService(repos.AccountRepo)
	categorySvc := services.NewCategoryService(repos.CategoryRepo)
	txnSvc := services.NewTransactionService(repos.TransactionRepo, repos.AccountRepo, repos.CategoryRepo)
	recurringSvc := services.NewRecurringService(repos.RecurringRepo, repos.AccountRepo, repos.CategoryRepo, txnSvc, time.Now)
	budgetSvc := services.NewBudgetService(repos.BudgetRepo, repos.AccountRepo, repos.CategoryRepo, time.Now)
	userSvc := services.NewUserService(repos.UserRepo, accountSvc)

	return &portssvc.ServiceContainer{
		Account:     accountSvc,
		Category:    categorySvc,
		Transaction: txnSvc,
		Recurring:   recurringSvc,
		Budget:      budgetSvc,
		User:        userSvc,
	}
}

// runMigrations applies pending migrations over a standard sql.DB connection
// using the pgx stdlib driver so it shares credentials with the main pool.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		migrationDB.Close()
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		migrationDB.Close()
		return err
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// runRecurringTicker materializes due recurring templates on a fixed cadence.
func runRecurringTicker(logger *slog.Logger, recurringSvc portssvc.RecurringSvcFacade, interval time.Duration) {
	tickLogger := logger.With(slog.String("component", "recurring_ticker"))
	ctx := middleware.ContextWithLogger(context.Background(), tickLogger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		result, err := recurringSvc.Tick(ctx, "")
		if err != nil {
			tickLogger.Error("Recurring generation tick failed", slog.String("error", err.Error()))
			continue
		}
		tickLogger.Info("Recurring generation tick completed",
			slog.Int("generated", len(result.GeneratedTransactions)),
			slog.Int("failures", len(result.Failures)),
		)
	}
}
