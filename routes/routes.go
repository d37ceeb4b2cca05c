package routes

import (
	"stayops-http-service/config"
	"stayops-http-service/controllers"
	_ "stayops-http-service/docs"
	"stayops-http-service/middleware"
	"stayops-http-service/services/container"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter initializes and returns the configured router
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Nuki-Signature-Sha256, X-Webhook-Token")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	middleware.InitAuthMiddleware(cfg)

	r.Use(middleware.RateLimiter())

	// Swagger documentation route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes configures all API routes
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	api := r.Group("/api")
	registerPublicRoutes(api, container)
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes registers routes that need no admin token
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// health check
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// authentication
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))

	// vendor webhooks authenticate themselves via signature or shared token
	api.POST("/webhooks/nuki/:profile_id", controllers.HandleWebhookFunc(container, "nuki"))
	api.POST("/webhooks/utec/:profile_id", controllers.HandleWebhookFunc(container, "utec"))
}

// registerAuthenticatedRoutes registers routes behind admin authentication
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateAdmin())

	// area routes
	auth.Group("/areas").GET("", controllers.HandleAreaFunc(container, "getAreas"))
	auth.Group("/areas").GET("/:id", controllers.HandleAreaFunc(container, "getArea"))
	auth.Group("/areas").POST("", controllers.HandleAreaFunc(container, "createArea"))
	auth.Group("/areas").PUT("/:id", controllers.HandleAreaFunc(container, "updateArea"))
	auth.Group("/areas").DELETE("/:id", controllers.HandleAreaFunc(container, "deleteArea"))

	// operator routes
	auth.Group("/operators").GET("", controllers.HandleOperatorFunc(container, "getOperators"))
	auth.Group("/operators").GET("/:id", controllers.HandleOperatorFunc(container, "getOperator"))
	auth.Group("/operators").POST("", controllers.HandleOperatorFunc(container, "createOperator"))
	auth.Group("/operators").PUT("/:id", controllers.HandleOperatorFunc(container, "updateOperator"))
	auth.Group("/operators").DELETE("/:id", controllers.HandleOperatorFunc(container, "deleteOperator"))
	auth.Group("/operators").GET("/:id/availability", controllers.HandleOperatorFunc(container, "getAvailability"))

	// listing routes
	auth.Group("/listings").GET("", controllers.HandleListingFunc(container, "getListings"))
	auth.Group("/listings").POST("", controllers.HandleListingFunc(container, "createListing"))
	auth.Group("/listings").PUT("/:id", controllers.HandleListingFunc(container, "updateListing"))

	// booking lifecycle routes
	auth.Group("/bookings").GET("", controllers.HandleBookingFunc(container, "getBookings"))
	auth.Group("/bookings").GET("/:id", controllers.HandleBookingFunc(container, "getBooking"))
	auth.Group("/bookings").POST("", controllers.HandleBookingFunc(container, "createBooking"))
	auth.Group("/bookings").POST("/:id/confirm", controllers.HandleBookingFunc(container, "confirmBooking"))
	auth.Group("/bookings").POST("/:id/alter", controllers.HandleBookingFunc(container, "alterBooking"))
	auth.Group("/bookings").POST("/:id/cancel", controllers.HandleBookingFunc(container, "cancelBooking"))
	auth.Group("/bookings").GET("/:id/history", controllers.HandleBookingFunc(container, "getBookingHistory"))

	// task routes
	auth.Group("/tasks").GET("", controllers.HandleTaskFunc(container, "getTasks"))
	auth.Group("/tasks").GET("/:id", controllers.HandleTaskFunc(container, "getTask"))
	auth.Group("/tasks").PUT("/:id/status", controllers.HandleTaskFunc(container, "updateTaskStatus"))
	auth.Group("/tasks").PUT("/:id/assignees", controllers.HandleTaskFunc(container, "updateTaskAssignees"))

	// lock integration routes
	auth.Group("/locks").POST("/profiles", controllers.HandleLockFunc(container, "createProfile"))
	auth.Group("/locks").GET("/profiles/:id/devices", controllers.HandleLockFunc(container, "getDevices"))
	auth.Group("/locks").POST("/profiles/:id/invoke", controllers.HandleLockFunc(container, "invokeCapability"))
	auth.Group("/locks").POST("/profiles/:id/webhook", controllers.HandleLockFunc(container, "registerWebhook"))

	// TTLock has no push webhooks; first access is polled
	auth.GET("/webhooks/ttlock/:profile_id/first-access", controllers.HandleWebhookFunc(container, "ttlockFirstAccess"))
}
