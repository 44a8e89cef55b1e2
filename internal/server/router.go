package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mestermind/backend/internal/handlers"
	"github.com/mestermind/backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	UserHandler         *handlers.UserHandler
	MessageHandler      *handlers.MessageHandler
	ConversationHandler *handlers.ConversationHandler
	AppointmentHandler  *handlers.AppointmentHandler
	PricingHandler      *handlers.PricingHandler
	PaymentHandler      *handlers.PaymentHandler
	SSEHandler          *handlers.SSEHandler
	AllowedOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("mestermind-backend"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api/v1")
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.SSEStream)
	protected.POST("/sse/subscribe", cfg.SSEHandler.SSESubscribe)
	protected.POST("/sse/unsubscribe", cfg.SSEHandler.SSEUnsubscribe)
	// User
	protected.GET("/me", cfg.UserHandler.GetMe)
	// Messages
	protected.GET("/messages", cfg.MessageHandler.List)
	protected.POST("/messages", cfg.MessageHandler.Send)
	protected.PATCH("/messages/:id/read", cfg.MessageHandler.MarkRead)
	// Conversations
	protected.GET("/conversations", cfg.ConversationHandler.List)
	protected.GET("/archived-conversations", cfg.ConversationHandler.ListArchived)
	protected.POST("/archived-conversations", cfg.ConversationHandler.Archive)
	protected.DELETE("/archived-conversations/:job_id", cfg.ConversationHandler.Unarchive)
	protected.GET("/archived-conversations/check/:job_id", cfg.ConversationHandler.CheckArchived)
	protected.POST("/starred-conversations", cfg.ConversationHandler.Star)
	protected.DELETE("/starred-conversations/:job_id", cfg.ConversationHandler.Unstar)
	protected.GET("/starred-conversations/check/:job_id", cfg.ConversationHandler.CheckStarred)
	// Appointments and proposals
	protected.POST("/appointments", cfg.AppointmentHandler.Create)
	protected.GET("/appointments", cfg.AppointmentHandler.ListMine)
	protected.POST("/threads/:threadID/proposals", cfg.AppointmentHandler.CreateProposal)
	protected.GET("/threads/:threadID/proposals", cfg.AppointmentHandler.ListProposals)
	protected.POST("/proposals/:id/accept", cfg.AppointmentHandler.AcceptProposal)
	protected.POST("/proposals/:id/reject", cfg.AppointmentHandler.RejectProposal)
	protected.POST("/proposals/:id/cancel", cfg.AppointmentHandler.CancelProposal)
	protected.POST("/appointments/:id/reschedule", cfg.AppointmentHandler.Reschedule)
	protected.POST("/appointments/:id/cancel", cfg.AppointmentHandler.Cancel)
	protected.POST("/appointments/:id/complete", cfg.AppointmentHandler.Complete)
	protected.POST("/appointments/:id/no-show", cfg.AppointmentHandler.MarkNoShow)
	protected.GET("/appointments/:id/ical", cfg.AppointmentHandler.ExportICal)
	// Pricing
	protected.GET("/pricing/lead/:id", cfg.PricingHandler.LeadPrice)
	protected.GET("/pricing/thread/:id", cfg.PricingHandler.LeadPrice)
	// Payments
	protected.POST("/payments/create-intent", cfg.PaymentHandler.CreateIntent)
	// v2 kept as an alias for older clients that expect the snapshot shape.
	protected.POST("/payments/create-intent-v2", cfg.PaymentHandler.CreateIntent)
	protected.POST("/payments/confirm", cfg.PaymentHandler.Confirm)
	protected.GET("/payments/check-access/:requestID", cfg.PaymentHandler.CheckAccess)
	protected.GET("/lead-purchases/check", cfg.MessageHandler.GateStatus)

	return router
}
