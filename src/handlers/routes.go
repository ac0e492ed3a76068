package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/middleware"
)

// RouteConfig holds the rate limits applied to console routes
type RouteConfig struct {
	Login     middleware.RateLimitConfig
	Mutations middleware.RateLimitConfig
}

// RegisterConsoleRoutes mounts the console API on router
func RegisterConsoleRoutes(router gin.IRouter, h *ConsoleHandler, cfg RouteConfig) {
	public := router.Group("/console")
	public.Use(middleware.NewIPRateLimitingMiddleware(cfg.Login))
	{
		public.POST("/login", h.HandleLogin)
		public.POST("/register", h.HandleRegister)
	}
	router.POST("/console/logout", middleware.ConsoleAuthMiddleware(), h.HandleLogout)

	api := router.Group("/console/api")
	api.Use(middleware.ConsoleAuthMiddleware())
	{
		api.GET("/me", h.HandleMe)
		api.GET("/notifications", h.HandleNotifications)

		roster := api.Group("/roster", middleware.RequireAdmin())
		roster.GET("", h.HandleRosterView())
		roster.POST("/refresh", h.HandleRosterRefresh)
		roster.PUT("/filter", h.HandleSetFilter())
		roster.PUT("/search", h.HandleSetSearch())
		roster.PUT("/roles/:role", h.HandleSetRole())
		roster.PUT("/statuses/:status", h.HandleSetStatus())
		roster.POST("/sort/toggle", h.HandleToggleSort())
		roster.POST("/page/:page", h.HandleGoToPage())
		roster.POST("/selection/all", h.HandleSelectAll())
		roster.POST("/selection/:id/toggle", h.HandleToggleSelection())

		users := api.Group("/users", middleware.RequireAdmin())
		users.GET("/:id", h.HandleGetUser)
		mutations := users.Group("", middleware.NewSessionRateLimitingMiddleware(cfg.Mutations))
		mutations.POST("", h.HandleCreateUser)
		mutations.PUT("/:id", h.HandleUpdateUser)
		mutations.DELETE("/:id", h.HandleDeleteUser)
		mutations.POST("/:id/toggle-status", h.HandleToggleStatus)

		history := api.Group("/history", middleware.RequireAdmin())
		history.GET("", h.HandleHistoryView)
		history.GET("/:id", h.HandleGetAction)
		history.POST("/open", h.HandleOpenHistory)
		history.POST("/close", h.HandleCloseHistory)
		history.POST("/scroll", h.HandleScrollHistory)
		history.PUT("/filter", h.HandleSetHistoryFilter)
	}
}
