package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"event-photo-service/internal/access"
	"event-photo-service/internal/db"
	"event-photo-service/internal/dm"
	"event-photo-service/internal/handlers"
	"event-photo-service/internal/identity"
	"event-photo-service/internal/middleware"
	"event-photo-service/internal/observability"
	"event-photo-service/internal/rabbitmq"
	"event-photo-service/internal/repositories"
	"event-photo-service/internal/sanitize"
	"event-photo-service/internal/telemetry"
	"event-photo-service/internal/tokens"
	"event-photo-service/internal/ws"
)

const serviceName = "event-photo-service"

func main() {
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	amqpURL := getEnv("AMQP_URL", "")
	amqpExchange := getEnv("AMQP_EXCHANGE", "event_photo.events")

	publisher := rabbitmq.NewPublisher(amqpURL, amqpExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "audit.event_photo", serviceName, getEnv("ENVIRONMENT", "development"))

	if amqpURL != "" {
		wsPublisher, err := observability.NewAMQPPublisher(amqpURL, amqpExchange)
		if err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(wsPublisher)
			defer wsPublisher.Close()
		}
	}

	eventRepo := repositories.NewEventRepo(database)
	postRepo := repositories.NewPostRepo(database)
	threadRepo := repositories.NewDMThreadRepo(database)

	sanitizer := sanitize.New(sanitize.DefaultPatterns())
	engine := access.NewEngine(sanitizer, eventRepo, postRepo, nil)
	ledger := dm.NewLedger(threadRepo)
	issuer := tokens.NewIssuer()

	hub := ws.NewHub()

	joinBase := getEnv("PUBLIC_BASE_URL", "http://localhost:8086")
	eventHandler := handlers.NewEventHandler(engine, eventRepo, postRepo, issuer, hub, audit, joinBase)
	dmHandler := handlers.NewDMHandler(engine, ledger, threadRepo, sanitizer, audit)
	feedWS := ws.NewFeedWebSocketHandler(hub, engine)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	resolver := identity.NewGatewayResolver()
	viewerMiddleware := middleware.ViewerMiddleware(resolver)

	router.POST("/events", viewerMiddleware, eventHandler.CreateEvent)
	router.GET("/events/:event_id", viewerMiddleware, eventHandler.GetEvent)
	router.GET("/events/:event_id/share", viewerMiddleware, eventHandler.ShareGrant)
	router.GET("/events/:event_id/feed", viewerMiddleware, eventHandler.GetFeed)
	router.POST("/events/:event_id/posts", viewerMiddleware, eventHandler.CreatePost)

	router.POST("/dm/threads", viewerMiddleware, dmHandler.StartThread)
	router.GET("/dm/threads/:thread_id/messages", viewerMiddleware, dmHandler.ListMessages)
	router.POST("/dm/threads/:thread_id/messages", viewerMiddleware, dmHandler.SendMessage)

	router.GET("/ws/events/:event_id/feed", viewerMiddleware, feedWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8086")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
