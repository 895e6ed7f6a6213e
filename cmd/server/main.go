package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safetrack/internal/config"
	handlers "safetrack/internal/handlers/shared"
	"safetrack/internal/middleware"
	"safetrack/internal/repositories/mongodb"
	"safetrack/internal/scheduler"
	"safetrack/internal/services"
	"safetrack/pkg/cache"
	"safetrack/pkg/database"
	"safetrack/pkg/logger"
	"safetrack/pkg/maps"
	"safetrack/pkg/push"
	"safetrack/pkg/sms"
	"safetrack/pkg/websocket"
	"safetrack/routes"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Mongo
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db.Database); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure indexes")
	}
	cancelIndexes()

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}

	// Repositories
	employeeRepo := mongodb.NewEmployeeRepository(db.Database)
	geofenceRepo := mongodb.NewGeofenceRepository(db.Database)
	journeyRepo := mongodb.NewJourneyRepository(db.Database)
	routeRepo := mongodb.NewRouteRepository(db.Database)
	emergencyRepo := mongodb.NewEmergencyRepository(db.Database)
	notificationRepo := mongodb.NewNotificationRepository(db.Database)
	locationRepo := mongodb.NewLocationRepository(db.Database)

	// Delivery providers
	var fcmProvider, apnsProvider push.PushProvider
	if cfg.Push.FCM.Credentials != "" {
		fcmProvider, err = push.NewFCMProvider(cfg.Push.FCM.Credentials)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize FCM")
		}
	}
	if cfg.Push.APNS.KeyFile != "" {
		apnsProvider, err = push.NewAPNSProvider(
			cfg.Push.APNS.KeyFile,
			cfg.Push.APNS.KeyID,
			cfg.Push.APNS.TeamID,
			cfg.Push.APNS.BundleID,
			cfg.Push.APNS.Production,
		)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize APNs")
		}
	}

	var smsProvider sms.SMSProvider
	switch cfg.SMS.Provider {
	case "aws":
		smsProvider, err = sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize SNS")
		}
	default:
		if cfg.SMS.Twilio.AccountSID != "" {
			smsProvider = sms.NewTwilioProvider(
				cfg.SMS.Twilio.AccountSID,
				cfg.SMS.Twilio.AuthToken,
				cfg.SMS.Twilio.FromNumber,
			)
		}
	}

	var mapsProvider maps.MapsProvider
	if cfg.Maps.GoogleMaps.APIKey != "" {
		mapsProvider, err = maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Google Maps")
		}
	}

	// WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Scheduler
	clock := scheduler.RealClock()
	sched := scheduler.New(clock)
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	go sched.Run(schedCtx)
	defer stopScheduler()

	// Services
	notificationService := services.NewNotificationService(
		notificationRepo, employeeRepo, fcmProvider, apnsProvider, smsProvider, wsHub, appLogger)
	emergencyService := services.NewEmergencyService(
		emergencyRepo, employeeRepo, notificationService, appLogger)
	locationService := services.NewLocationService(locationRepo, redisCache, appLogger)
	journeyService := services.NewJourneyService(
		journeyRepo, employeeRepo, emergencyService, notificationService, locationService,
		sched, clock,
		services.JourneyConfig{
			FirstReminderDelay: cfg.Monitor.FirstReminderDelay,
			ReminderInterval:   cfg.Monitor.ReminderInterval,
			MaxReminders:       cfg.Monitor.MaxReminders,
		},
		appLogger)
	geofenceService := services.NewGeofenceService(
		geofenceRepo, employeeRepo, journeyService, notificationService, redisCache, appLogger)
	routeService := services.NewRouteService(
		routeRepo, notificationService, mapsProvider,
		sched, clock,
		services.RouteConfig{
			CheckInterval:      cfg.Monitor.RouteCheckInterval,
			LocationStaleAfter: cfg.Monitor.LocationStaleAfter,
			StartGrace:         cfg.Monitor.RouteStartGrace,
			DelayGrowthStep:    cfg.Monitor.DelayGrowthStep,
			CleanupAge:         cfg.Monitor.RouteCleanupAge,
			TrafficMinimum:     cfg.Monitor.TrafficMinimum,
		},
		appLogger)

	// Resume monitoring that was active before the last restart.
	resumeCtx, cancelResume := context.WithTimeout(context.Background(), 30*time.Second)
	if err := journeyService.Resume(resumeCtx); err != nil {
		appLogger.WithError(err).Error("Failed to resume active journeys")
	}
	cancelResume()
	routeService.StartMonitoring()

	// WebSocket handler feeds device positions into the same pipeline
	// as the HTTP ingest endpoint.
	wsHandler := websocket.NewHandler(wsHub)
	wsHandler.OnLocation(func(userID primitive.ObjectID, latitude, longitude, accuracy float64) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		update, err := locationService.RecordLocation(ctx, userID, latitude, longitude, accuracy)
		if err != nil {
			appLogger.WithUserID(userID).WithError(err).Warn("Failed to record streamed location")
			return
		}
		if _, err := geofenceService.EvaluateLocation(ctx, userID, update.Location); err != nil {
			appLogger.WithUserID(userID).WithError(err).Warn("Failed to evaluate streamed location")
		}
		if err := routeService.ReportDriverLocation(ctx, userID, latitude, longitude); err != nil {
			appLogger.WithUserID(userID).WithError(err).Warn("Failed to feed route monitor")
		}
	})

	// Handlers
	locationHandler := handlers.NewLocationHandler(locationService, geofenceService, routeService)
	journeyHandler := handlers.NewJourneyHandler(journeyService, locationService)
	geofenceHandler := handlers.NewGeofenceHandler(geofenceService)
	routeHandler := handlers.NewRouteHandler(routeService)
	emergencyHandler := handlers.NewEmergencyHandler(emergencyService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	jwtSecret := cfg.Security.JWTSecret
	v1 := router.Group("/api/v1")
	{
		routes.SetupLocationRoutes(v1, locationHandler, jwtSecret)
		routes.SetupJourneyRoutes(v1, journeyHandler, jwtSecret)
		routes.SetupGeofenceRoutes(v1, geofenceHandler, jwtSecret)
		routes.SetupRouteRoutes(v1, routeHandler, jwtSecret)
		routes.SetupEmergencyRoutes(v1, emergencyHandler, jwtSecret)
		routes.SetupNotificationRoutes(v1, notificationHandler, jwtSecret)
	}

	router.GET("/ws", middleware.AuthRequired(jwtSecret), wsHandler.HandleConnection)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting %s on port %d", cfg.App.Name, cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	stopScheduler()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}
