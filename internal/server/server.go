package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tesudeix/Yuki/internal/auth"
	"github.com/Tesudeix/Yuki/internal/availability"
	"github.com/Tesudeix/Yuki/internal/booking"
	"github.com/Tesudeix/Yuki/internal/catalog"
	"github.com/Tesudeix/Yuki/internal/config"
	"github.com/Tesudeix/Yuki/internal/user"
)

// Services are the domain services the router exposes.
type Services struct {
	Users        user.Service
	Catalog      catalog.Service
	Availability availability.Service
	Bookings     booking.Service
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, db Pinger, queue QueueReporter, svc Services) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	userHandler := user.NewHandler(svc.Users)
	catalogHandler := catalog.NewHandler(svc.Catalog)
	availabilityHandler := availability.NewHandler(svc.Availability)
	bookingHandler := booking.NewHandler(svc.Bookings)

	router.GET("/health", Health(db, queue))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/locations", catalogHandler.ListLocations)
		protected.GET("/resources", catalogHandler.ListResources)
		protected.GET("/availability", availabilityHandler.GetAvailability)
		protected.POST("/bookings", RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst), bookingHandler.Book)
		protected.GET("/bookings/mine", bookingHandler.ListMine)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(user.RoleAdmin))
	{
		admin.POST("/locations", catalogHandler.CreateLocation)
		admin.POST("/resources", catalogHandler.CreateResource)
		admin.POST("/availability", availabilityHandler.SeedDay)
		admin.GET("/bookings/consistency", bookingHandler.Consistency)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
