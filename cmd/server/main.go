package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"jobgenie/internal/account"
	"jobgenie/internal/api"
	"jobgenie/internal/approval"
	"jobgenie/internal/auth"
	"jobgenie/internal/config"
	"jobgenie/internal/db"
	"jobgenie/internal/email"
	"jobgenie/internal/gemini"
	"jobgenie/internal/invitation"
	"jobgenie/internal/logger"
	"jobgenie/internal/metrics"
	"jobgenie/internal/notify"
	"jobgenie/internal/pdf"
	"jobgenie/internal/profile"
	"jobgenie/internal/resume"
	"jobgenie/internal/scheduler"
	"jobgenie/internal/storage"
	"jobgenie/internal/store"
	"jobgenie/internal/verification"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New(&logger.Config{
		Level:  logger.Level(cfg.LogLevel),
		Format: logger.Format(cfg.LogFormat),
	})
	log.SetDefault()

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "migrate":
			runMigrate(cfg, os.Args[2:])
			return
		case "create-mis-admin":
			runCreateMISAdmin(cfg, os.Args[2:])
			return
		case "version":
			fmt.Printf("jobgenie %s (%s)\n", version, commit)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	if err := runServer(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`JobGenie - Job board for candidates, employers and MIS reviewers

Usage:
  jobgenie [command]

Commands:
  (none)             Start the HTTP server
  migrate            Run database migrations
  create-mis-admin   Create an MIS administrator account
  version            Show version information
  help               Show this help message

Run 'jobgenie migrate --help' for migration options.

Environment Variables:
  DATABASE_URL          PostgreSQL connection string (required)
  JWT_SECRET            Secret key for JWT signing (required, min 32 chars)
  GOOGLE_CLIENT_ID      Google OAuth client ID (candidate sign-in)
  GOOGLE_CLIENT_SECRET  Google OAuth client secret
  GEMINI_API_KEY        Gemini API key for resume extraction
  SMTP_HOST             SMTP relay; emails are logged when unset
  UPLOAD_DIR            Resume storage directory (default: ./uploads)
  CLEANUP_SCHEDULE      Cron schedule for cleanup jobs (default: @hourly)
  PORT                  Server port (default: 8080)
  FRONTEND_URL          Frontend URL for CORS and email links`)
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.MetricsEnabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	slog.Info("Connecting to database...")
	dbConn, err := db.NewDB(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()
	slog.Info("Database connected")

	storeInstance := store.NewStore(dbConn)
	bus := EventBus.New()

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiryHours, cfg.RefreshExpiryDays)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT manager: %w", err)
	}
	hasher := auth.NewPasswordHasher(0)

	// Email
	var sender email.Sender = email.LogSender{}
	if cfg.IsSMTPEnabled() {
		sender = email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
		slog.Info("SMTP delivery enabled", "host", cfg.SMTPHost)
	} else {
		slog.Warn("SMTP not configured, emails will be logged")
	}
	mailer, err := email.NewMailer(sender, "JobGenie", cfg.FrontendURL)
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	if err := notify.NewNotifier(mailer, storeInstance, cfg.FrontendURL).Subscribe(bus); err != nil {
		return fmt.Errorf("failed to subscribe notifier: %w", err)
	}

	// Domain services
	codes := verification.NewService(storeInstance, verification.Config{
		TTL:            cfg.VerificationCodeTTL,
		MaxAttempts:    cfg.VerificationMaxAttempts,
		ResendCooldown: cfg.ResendCooldown,
	})
	accounts := account.NewService(storeInstance, codes, jwtManager, hasher, bus)
	approvals := approval.NewService(storeInstance, bus)
	invitations := invitation.NewService(storeInstance, accounts, hasher, bus, cfg.InvitationTTL)
	profiles := profile.NewService(storeInstance, approvals)
	companies := profile.NewCompanyService(storeInstance, approvals)

	// Resumes
	files, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to open upload directory: %w", err)
	}

	var extractor resume.Extractor
	if cfg.IsGeminiEnabled() {
		geminiClient, err := gemini.NewClient(ctx, gemini.ClientConfig{
			APIKey:               cfg.GeminiAPIKey,
			Model:                cfg.GeminiModel,
			Temperature:          cfg.GeminiTemperature,
			MaxRequestsPerMinute: cfg.GeminiMaxRequestsPerMinute,
		})
		if err != nil {
			slog.Warn("Failed to initialize Gemini client", "error", err)
		} else {
			defer geminiClient.Close()
			extractor = geminiClient
			slog.Info("Gemini resume extraction enabled")
		}
	}
	resumes := resume.NewService(storeInstance, files, extractor, pdf.NewConverter(cfg.ChromePath), cfg.MaxUploadBytes())

	services := api.Services{
		Accounts:    accounts,
		Approvals:   approvals,
		Invitations: invitations,
		Profiles:    profiles,
		Companies:   companies,
		Resumes:     resumes,
	}
	if cfg.IsGoogleOAuthEnabled() {
		services.Google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		slog.Info("Google sign-in enabled")
	}

	// Background cleanup
	janitor, err := scheduler.NewJanitor(storeInstance, cfg.CleanupSchedule)
	if err != nil {
		return fmt.Errorf("failed to create cleanup scheduler: %w", err)
	}
	janitor.Start()
	defer janitor.Stop()

	router, err := api.SetupRouter(cfg, jwtManager, services, version)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting JobGenie", "address", addr, "version", version, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Let pending notification emails finish.
	bus.WaitAsync()

	slog.Info("Server stopped")
	return nil
}

func runMigrate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	databaseURL := fs.String("database", cfg.DatabaseURL, "PostgreSQL connection string")
	dir := fs.String("dir", "", "Migrations directory (default: ./migrations)")
	direction := fs.String("direction", "up", "Migration direction: up, down")
	steps := fs.Int("steps", 0, "Number of migrations to run (0 = all)")
	force := fs.Int("force", -1, "Force migration version (for recovery)")
	showVersion := fs.Bool("version", false, "Print the current migration version")
	_ = fs.Parse(args)

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: DATABASE_URL is required. Set via environment variable or --database flag.")
		os.Exit(1)
	}

	migrator, err := db.NewMigrator(*databaseURL, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	defer migrator.Close()

	if *showVersion {
		v, dirty, err := migrator.Version()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to read migration version: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Migration version: %d (dirty: %t)\n", v, dirty)
		return
	}

	if *force >= 0 {
		fmt.Printf("Forcing migration version to %d...\n", *force)
		if err := migrator.Force(*force); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to force migration version: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migration version forced successfully.")
		return
	}

	fmt.Printf("Running migrations (%s)...\n", *direction)

	if *steps != 0 {
		n := *steps
		if *direction == "down" {
			n = -n
		}
		if err := migrator.Steps(n); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Migration failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		switch *direction {
		case "up":
			if err := migrator.Up(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: Migration up failed: %v\n", err)
				os.Exit(1)
			}
		case "down":
			if err := migrator.Down(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: Migration down failed: %v\n", err)
				os.Exit(1)
			}
		default:
			fmt.Fprintf(os.Stderr, "Error: Invalid direction '%s'. Use 'up' or 'down'.\n", *direction)
			os.Exit(1)
		}
	}

	fmt.Println("Migrations completed successfully.")
}

func runCreateMISAdmin(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("create-mis-admin", flag.ExitOnError)
	emailAddr := fs.String("email", "", "Administrator email")
	password := fs.String("password", os.Getenv("MIS_ADMIN_PASSWORD"), "Administrator password (or MIS_ADMIN_PASSWORD)")
	_ = fs.Parse(args)

	if *emailAddr == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required.")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbConn, err := db.NewDB(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiryHours, cfg.RefreshExpiryDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	storeInstance := store.NewStore(dbConn)
	codes := verification.NewService(storeInstance, verification.Config{
		TTL:            cfg.VerificationCodeTTL,
		MaxAttempts:    cfg.VerificationMaxAttempts,
		ResendCooldown: cfg.ResendCooldown,
	})
	accounts := account.NewService(storeInstance, codes, jwtManager, auth.NewPasswordHasher(0), EventBus.New())

	user, err := accounts.CreateMISAdmin(ctx, *emailAddr, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create MIS administrator: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("MIS administrator created: %s (%s)\n", user.Email, user.ID)
}
