package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mestermind/backend/internal/clients/redis"
	"github.com/mestermind/backend/internal/db"
	"github.com/mestermind/backend/internal/handlers"
	"github.com/mestermind/backend/internal/jobs"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/middleware"
	"github.com/mestermind/backend/internal/observability"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/server"
	"github.com/mestermind/backend/internal/services"
	"github.com/mestermind/backend/internal/sse"
	"github.com/mestermind/backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "mestermind-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	leadMessageLimit := utils.GetEnvAsInt("LEAD_MESSAGE_LIMIT", services.DefaultLeadMessageLimit, log)
	proposalTTLHours := utils.GetEnvAsInt("PROPOSAL_TTL_HOURS", 72, log)
	currency := utils.GetEnv("LEAD_PRICE_CURRENCY", "HUF", log)
	stripeSecretKey := utils.GetEnv("STRIPE_SECRET_KEY", "", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	jobRepo := repos.NewJobRepo(thePG, log)
	serviceRepo := repos.NewServiceRepo(thePG, log)
	proProfileRepo := repos.NewProProfileRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	conversationFlagRepo := repos.NewConversationFlagRepo(thePG, log)
	proposalRepo := repos.NewProposalRepo(thePG, log)
	appointmentRepo := repos.NewAppointmentRepo(thePG, log)
	leadPurchaseRepo := repos.NewLeadPurchaseRepo(thePG, log)

	// Redis lead-access cache. The gate falls back to the database when the
	// cache is unavailable, so startup continues without it.
	accessCache, err := redis.NewLeadAccessCache(log)
	if err != nil {
		log.Warn("Redis lead access cache unavailable, gate checks hit the database", "error", err)
		accessCache = nil
	}

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	gateService := services.NewGateService(thePG, log, messageRepo, leadPurchaseRepo, accessCache, leadMessageLimit)
	messageService := services.NewMessageService(thePG, log, messageRepo, userRepo, jobRepo, gateService, sseHub, leadMessageLimit)
	conversationService := services.NewConversationService(thePG, log, messageRepo, jobRepo, userRepo, serviceRepo, proProfileRepo, conversationFlagRepo)
	proposalService := services.NewProposalService(thePG, log, proposalRepo, appointmentRepo, jobRepo, sseHub, time.Duration(proposalTTLHours)*time.Hour)
	appointmentService := services.NewAppointmentService(thePG, log, appointmentRepo, userRepo, sseHub)
	pricingService, err := services.NewPricingService(thePG, log, jobRepo, serviceRepo, currency)
	if err != nil {
		log.Error("Could not init PricingService", "error", err)
		os.Exit(1)
	}
	stripeClient, err := services.NewStripeClient(log, stripeSecretKey)
	if err != nil {
		log.Error("Could not init StripeClient", "error", err)
		os.Exit(1)
	}
	paymentService := services.NewPaymentService(thePG, log, leadPurchaseRepo, pricingService, gateService, stripeClient, accessCache, sseHub)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	sseHandler := handlers.NewSSEHandler(sseHub)
	messageHandler := handlers.NewMessageHandler(messageService, gateService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, proposalService)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Background sweeps
	sweeper := jobs.NewSweeper(log, thePG, proposalService, paymentService, userTokenRepo)
	if err := sweeper.Start(); err != nil {
		log.Error("Could not start sweeper", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		MessageHandler:      messageHandler,
		ConversationHandler: conversationHandler,
		AppointmentHandler:  appointmentHandler,
		PricingHandler:      pricingHandler,
		PaymentHandler:      paymentHandler,
		SSEHandler:          sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
