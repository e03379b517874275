package main

import (
	"fmt"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cattle-monitor-service/ai"
	"cattle-monitor-service/config"
	"cattle-monitor-service/database"
	"cattle-monitor-service/handlers"
	"cattle-monitor-service/metrics"
	"cattle-monitor-service/osm"
	"cattle-monitor-service/rabbitmq"
	"cattle-monitor-service/service"
	"cattle-monitor-service/utils"
	"cattle-monitor-service/version"
	"cattle-monitor-service/webhook"
	ws "cattle-monitor-service/websocket"
)

const (
	EndPointHealth  = "/health"
	EndPointAnalyze = "/analyze"
	EndPointStatus  = "/status"
	EndPointAlerts  = "/ws/alerts"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Info("Starting the cattle monitor service...")

	// Connect to database
	db, err := utils.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize database schema
	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	metrics.Register()

	// Feature scanner with its MySQL-backed cache
	scanner := osm.NewCachedScanner(osm.NewClient(cfg.OverpassURL), db)
	if err := scanner.CreateCacheTable(); err != nil {
		log.Fatalf("Failed to create feature cache table: %v", err)
	}

	// Predictors degrade to fallbacks when the model files are missing
	healthPredictor := ai.NewHealthPredictor(cfg.HealthModelPath)
	batteryPredictor := ai.NewBatteryPredictor(cfg.BatteryModelPath)

	// Alert fan-out channels
	dispatcher := webhook.NewDispatcher(cfg.WebhookURL, cfg.WebhookQueueSize)
	defer dispatcher.Close()

	var publisher service.AlertPublisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL)
		if err != nil {
			log.Warnf("RabbitMQ unavailable, alerts will not reach the bus: %v", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	hub := ws.NewHub()
	go hub.Run()

	// Initialize services
	trackingService := database.NewTrackingService(db)
	analyzer := service.NewAnalyzer(
		trackingService,
		scanner,
		healthPredictor,
		batteryPredictor,
		dispatcher,
		publisher,
		hub,
	)

	// Initialize handlers
	monitorHandler := handlers.NewMonitorHandler(analyzer)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, version.Get("cattle-monitor-service"))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register health endpoint (outside API group)
	router.GET(EndPointHealth, monitorHandler.HealthCheck)

	// Live alert stream
	router.GET(EndPointAlerts, wsHandler.ListenAlerts)

	// Create API v1 router group
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST(EndPointAnalyze, monitorHandler.Analyze)
		apiV1.GET(EndPointStatus, monitorHandler.Status)
	}

	// Get server port from config
	serverPort, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT configuration: %v", err)
	}

	// Start server
	log.Infof("Cattle monitor service starting on port %d", serverPort)
	if err := router.Run(fmt.Sprintf(":%d", serverPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
