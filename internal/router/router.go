package router

import (
	"context"
	"net/http"
	"time"

	"estatehub/config"
	"estatehub/internal/handler"
	"estatehub/internal/mail"
	"estatehub/internal/middleware"
	"estatehub/internal/repository"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto a gin engine. Background work
// started here stops when ctx is done.
func Setup(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	go limiter.Run(time.Minute, ctx.Done())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	savedSearchRepo := repository.NewSavedSearchRepository(db)
	listingRepo := repository.NewListingRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, resetRepo, mail.New(&cfg.Mail, log), log)
	savedSearchSvc := service.NewSavedSearchService(savedSearchRepo, listingRepo, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, log)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, log)
	facebookOAuthHandler := handler.NewFacebookOAuthHandler(cfg, authSvc, log)
	savedSearchHandler := handler.NewSavedSearchHandler(savedSearchSvc, log)
	listingHandler := handler.NewListingHandler(savedSearchSvc, log)
	adminHandler := handler.NewAdminHandler(adminRepo, listingRepo, log)
	favoriteHandler := handler.NewFavoriteHandler(favoriteRepo, listingRepo, log)

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is working", "timestamp": time.Now().Format(time.DateTime)})
	}
	r.GET("/test", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter))
	{
		api.GET("/test", health)
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/refresh", authHandler.Refresh)
		api.GET("/login/google", googleOAuthHandler.Redirect)
		api.GET("/login/google/callback", googleOAuthHandler.Callback)
		api.GET("/login/facebook", facebookOAuthHandler.Redirect)
		api.GET("/login/facebook/callback", facebookOAuthHandler.Callback)
		api.POST("/forgot-password", authHandler.ForgotPassword)
		api.POST("/reset-password", authHandler.ResetPassword)
		api.POST("/verify-email/:id/:hash", authHandler.VerifyEmail)
		api.POST("/resend-verification-email", authHandler.ResendVerification)
		api.GET("/listings/search", listingHandler.Search)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(&cfg.JWT))
	{
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/user", authHandler.Me)

		authed.GET("/saved-searches", savedSearchHandler.List)
		authed.POST("/saved-searches", savedSearchHandler.Create)
		authed.GET("/saved-searches/:id", savedSearchHandler.Show)
		authed.PUT("/saved-searches/:id", savedSearchHandler.Update)
		authed.PATCH("/saved-searches/:id", savedSearchHandler.Update)
		authed.DELETE("/saved-searches/:id", savedSearchHandler.Delete)
		authed.GET("/saved-searches/:id/execute", savedSearchHandler.Execute)

		authed.GET("/favorites", favoriteHandler.List)
		authed.POST("/favorites/:id", favoriteHandler.Toggle)
		authed.DELETE("/favorites/:id", favoriteHandler.Remove)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/listings", adminHandler.ListListings)
		admin.PUT("/listings/:id/approve", adminHandler.Approve)
		admin.PUT("/listings/:id/reject", adminHandler.Reject)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})
	return r
}
