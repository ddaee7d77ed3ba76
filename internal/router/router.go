package router

import (
	"context"
	"log"
	"time"

	"github.com/anonto42/tinyfeed/internal/auth"
	"github.com/anonto42/tinyfeed/internal/handlers"
	"github.com/anonto42/tinyfeed/internal/middleware"
	"github.com/anonto42/tinyfeed/internal/repositories"
	"github.com/anonto42/tinyfeed/internal/storage"
	"github.com/anonto42/tinyfeed/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes wires repositories, handlers and routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, client *mongo.Client) error {
	db := client.Database(cfg.MongoDB)

	// --- Initialize repositories ---
	userRepo := repositories.NewMongoUserRepository(db)
	postRepo := repositories.NewMongoPostRepository(client, db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	log.Println("MongoDB indexes ensured.")

	disk, err := storage.NewDisk(cfg.UploadsDir, "/uploads")
	if err != nil {
		return err
	}

	codec := auth.NewTokenCodec(cfg.JWTSecret)

	e.HTTPErrorHandler = NewHTTPErrorHandler(e)

	// Health check and uploaded pictures - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.Static("/uploads", cfg.UploadsDir)

	// --- Public pages and auth mutations ---
	authHandler := handlers.NewAuthHandler(userRepo, codec, cfg.CookieName)
	authHandler.RegisterAuthRoutes(e)
	log.Println("Auth routes configured.")

	// --- Protected routes (require a valid session cookie) ---
	protected := e.Group("")
	protected.Use(middleware.SessionAuth(codec, userRepo, cfg.CookieName))

	postHandler := handlers.NewPostHandler(postRepo)
	postHandler.RegisterPostRoutes(protected)
	log.Println("Post routes configured.")

	profileHandler := handlers.NewProfileHandler(userRepo, postRepo, disk)
	profileHandler.RegisterProfileRoutes(protected)
	log.Println("Profile routes configured.")

	log.Println("All routes configured.")
	return nil
}
