package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vinylshelf/internal/handlers"
	"vinylshelf/internal/middleware"
	"vinylshelf/internal/models"
	"vinylshelf/internal/services"
	"vinylshelf/internal/session"
	"vinylshelf/migrations"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StartServer wires up the whole application and runs the HTTP server
// until SIGINT or SIGTERM.
func StartServer(cfg *Config) error {
	setupLogging(cfg)

	db, err := connectToDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// The provider's endpoints are discovered once at startup. A provider
	// that cannot be reached is fatal; without it no login can succeed.
	discoverCtx, cancelDiscover := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDiscover()

	metadata, err := services.DiscoverProvider(discoverCtx, cfg.OAuth.IssuerURL)
	if err != nil {
		return fmt.Errorf("provider discovery failed: %w", err)
	}

	var keys services.KeySource
	if metadata.JWKSURI != "" {
		keys, err = services.FetchSigningKeys(discoverCtx, metadata.JWKSURI)
		if err != nil {
			logrus.WithError(err).Warn("Failed to fetch signing keys; ID tokens will not be validated")
			keys = nil
		}
	}

	userService := services.NewUserService(db)
	albumService := services.NewAlbumService(db)
	providerClient := services.NewProviderClient(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, metadata)

	redirectURI := strings.TrimRight(cfg.OAuth.SelfURL, "/") + models.CallbackPath
	issuer := strings.TrimRight(cfg.OAuth.IssuerURL, "/")
	authService := services.NewAuthService(providerClient, userService, keys, metadata, cfg.OAuth.ClientID, issuer, redirectURI)

	capacity := cfg.Session.CacheCapacity
	if capacity == 0 {
		capacity = session.DefaultCacheCapacity
	}
	store := session.NewStore(session.NewGormBackend(db), session.NewLRUCache(capacity))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(session.Middleware(store, cfg.GetSessionTTL(), cfg.Session.Secure))

	templatesDir := cfg.Server.TemplatesDir
	if templatesDir == "" {
		templatesDir = "templates"
	}
	r.LoadHTMLGlob(filepath.Join(templatesDir, "*.html"))

	setupRoutes(r, db, authService, userService, albumService)

	readTimeout, err := time.ParseDuration(cfg.Server.ReadTimeout)
	if err != nil {
		logrus.Warnf("Invalid read timeout, using default: %v", err)
		readTimeout = 30 * time.Second
	}

	writeTimeout, err := time.ParseDuration(cfg.Server.WriteTimeout)
	if err != nil {
		logrus.Warnf("Invalid write timeout, using default: %v", err)
		writeTimeout = 30 * time.Second
	}

	idleTimeout, err := time.ParseDuration(cfg.Server.IdleTimeout)
	if err != nil {
		logrus.Warnf("Invalid idle timeout, using default: %v", err)
		idleTimeout = 120 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.WithFields(logrus.Fields{
			"address":     cfg.GetAddress(),
			"environment": cfg.Server.Environment,
			"issuer":      issuer,
		}).Info("Starting vinylshelf server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logrus.Info("Server exited gracefully")
	return nil
}

// setupLogging configures logrus from the server config.
func setupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Server.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// setupRoutes registers all application routes.
func setupRoutes(r *gin.Engine, db *gorm.DB, authService services.AuthService, userService services.UserService, albumService services.AlbumService) {
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	albumHandler := handlers.NewAlbumHandler(albumService)

	r.GET("/health", handlers.Health(db))

	r.GET("/", middleware.LoadUser(), handlers.Home)

	r.GET(models.LoginPath, authHandler.Login)
	r.GET(models.CallbackPath, authHandler.Callback)
	r.GET(models.LogoutPath, authHandler.Logout)

	albums := r.Group(handlers.AlbumPath)
	albums.Use(middleware.LoadUser(), middleware.RequireUser())
	{
		albums.GET("", albumHandler.List)
		albums.POST("", albumHandler.Create)
		albums.GET("/:id", albumHandler.Details)
		albums.POST("/:id", albumHandler.Update)
		albums.POST("/:id/delete", albumHandler.Delete)
	}

	users := r.Group(handlers.UserPath)
	users.Use(middleware.LoadUser(), middleware.RequireUser())
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Details)
		users.POST("/:id", userHandler.Update)
		users.POST("/:id/delete", userHandler.Delete)
	}
}

// connectToDatabase opens the PostgreSQL connection and configures the
// pool.
func connectToDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()
	logrus.WithFields(logrus.Fields{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"user":     cfg.Database.User,
	}).Info("Connecting to PostgreSQL")

	gormConfig := &gorm.Config{}
	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	connectionMaxLifetime, err := time.ParseDuration(cfg.Database.ConnectionMaxLifetime)
	if err != nil {
		logrus.Warnf("Invalid connection max lifetime, using default 5m: %v", err)
		connectionMaxLifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(connectionMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"max_open":     cfg.Database.MaxOpenConnections,
		"max_idle":     cfg.Database.MaxIdleConnections,
		"max_lifetime": connectionMaxLifetime,
	}).Info("Database connection established")

	return db, nil
}

// RunMigrations applies the database migrations without starting the
// server.
func RunMigrations(cfg *Config) error {
	setupLogging(cfg)

	db, err := connectToDatabase(cfg)
	if err != nil {
		return err
	}

	if err := migrations.Run(db); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
