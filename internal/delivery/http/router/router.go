// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"purse/internal/delivery/http/middleware"
	"purse/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.SignUp)
		authGroup.POST("/login", r.authHandler.SignIn)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/reset-password", r.authHandler.ResetPassword)
	}

	// Auth routes that require a valid session
	sessionGroup := e.Group("/auth")
	sessionGroup.Use(r.authMiddleware.Authenticate)
	{
		sessionGroup.POST("/logout", r.authHandler.SignOut)
		sessionGroup.POST("/logout-all", r.authHandler.SignOutEverywhere)
		sessionGroup.POST("/confirm-email", r.authHandler.ConfirmEmail)
	}

	// User routes that require authentication
	userGroup := e.Group("/user")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/profile", r.userHandler.GetProfile)
		userGroup.PATCH("/metadata", r.userHandler.UpdateMetadata)
		userGroup.PUT("/password", r.userHandler.UpdatePassword)
		userGroup.DELETE("", r.userHandler.DeleteAccount)
		userGroup.GET("/sessions", r.userHandler.ListSessions)
		userGroup.DELETE("/sessions/:id", r.userHandler.RevokeSession)
	}

	// Directory listing, gated on a confirmed email
	usersGroup := e.Group("/users")
	usersGroup.Use(r.authMiddleware.Authenticate, r.authMiddleware.RequireConfirmedEmail)
	{
		usersGroup.GET("", r.userHandler.ListUsers)
	}
}
