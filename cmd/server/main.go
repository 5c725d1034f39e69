package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lurnix/course-app/internal/api"
	"lurnix/course-app/internal/auth"
	"lurnix/course-app/internal/config"
	"lurnix/course-app/internal/repository/postgres"
	"lurnix/course-app/internal/service"
	"lurnix/course-app/internal/storage"
)

func main() {
	log.Println("Starting Course App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	db, err := postgres.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to PostgreSQL: %v", err)
	}
	log.Println("Database connection established.")

	log.Println("Running database migrations...")
	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("FATAL: Database migration failed: %v", err)
	}

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3, cfg.Uploads.PartSize)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := postgres.NewUserRepository(db)
	courseRepo := postgres.NewCourseRepository(db)
	moduleRepo := postgres.NewModuleRepository(db)
	videoRepo := postgres.NewVideoRepository(db)
	materialRepo := postgres.NewMaterialRepository(db)
	learnerRepo := postgres.NewLearnerRepository(db)
	intentRepo := postgres.NewIntentRepository(db)

	// --- Initialize Auth ---
	codec := auth.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Expiration)
	provider, err := auth.NewOIDCProvider(context.Background(), cfg.OIDC)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize OIDC provider: %v", err)
	}
	resolver := auth.NewSessionResolver(codec, provider, userRepo)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, codec)
	courseService := service.NewCourseService(
		courseRepo, moduleRepo, videoRepo, materialRepo, learnerRepo, intentRepo,
		fileStorage, cfg.S3.Region, cfg.Uploads.URLExpiry, cfg.Uploads.EnrichConcurrency,
	)
	mediaService := service.NewMediaService(
		courseRepo, moduleRepo, videoRepo, materialRepo, intentRepo,
		fileStorage, cfg.S3.Region, cfg.Uploads.URLExpiry,
	)
	imageService := service.NewImageService(fileStorage, cfg.Uploads.URLExpiry)
	learnerService := service.NewLearnerService(learnerRepo, courseRepo, cfg.Progress.Monotonic)

	// --- Staging Namespace ---
	// Course-independent uploads land here; created once at startup.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mediaService.EnsureStagingNamespace(ctx); err != nil {
			cancel()
			log.Fatalf("FATAL: Failed to provision staging namespace: %v", err)
		}
		cancel()
	}

	// --- Background Reconciler ---
	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	reconciler := service.NewReconciler(intentRepo, fileStorage, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter)
	go reconciler.Run(reconcilerCtx)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, resolver, provider, codec, authService, courseService, mediaService, imageService, learnerService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopReconciler()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
