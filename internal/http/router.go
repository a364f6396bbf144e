package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/http/handlers"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Listing  *handlers.ListingHandler
	Message  *handlers.MessageHandler
	Category *handlers.CategoryHandler
	Admin    *handlers.AdminHandler
	Meta     *handlers.MetaHandler
	Health   *handlers.HealthHandler
	WS       *handlers.WSHub
}

type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	Limiter middleware.RateCounter
	Revoked auth.RevocationStore
	Users   middleware.UserLookup
}

func SetupRouter(app *fiber.App, d Deps, h Handlers) {
	cfg, log := d.Config, d.Log

	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/health", h.Health.Health)

	api := app.Group("/api/v1")

	// Auth (public, отдельный лимит)
	api.Post("/auth/telegram",
		middleware.RateLimitMiddleware(d.Limiter, "auth", cfg.AuthRateLimitPerMinute, time.Minute, log),
		h.Auth.TelegramAuth)

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(d.Limiter, "api", cfg.RateLimitPerMinute, time.Minute, log))

	api.Get("/meta", h.Meta.Get)
	api.Get("/categories", h.Category.List)
	api.Get("/listings", h.Listing.List)
	api.Get("/listings/:id", h.Listing.Get)
	api.Post("/listings/:id/view", h.Listing.RegisterView)
	api.Get("/stats", h.Listing.Stats)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, d.Revoked, log))

	protected.Post("/auth/logout", h.Auth.Logout)

	// User
	protected.Get("/me", h.User.GetMe)
	protected.Get("/me/listings", h.User.MyListings)
	protected.Get("/me/messages", h.User.MyMessages)
	protected.Post("/me/messages/:id/read", h.User.MarkMessageRead)
	protected.Put("/me/wallet", h.User.SetWallet)
	protected.Delete("/me/wallet", h.User.ClearWallet)

	// Listings
	protected.Post("/listings", middleware.RequirePermission(d.Users, rbac.PermCreateListing, log), h.Listing.Create)
	protected.Delete("/listings/:id", middleware.RequirePermission(d.Users, rbac.PermCreateListing, log), h.Listing.Delete)
	protected.Post("/contact", middleware.RequirePermission(d.Users, rbac.PermContactSeller, log), h.Message.Contact)

	// Admin
	admin := protected.Group("/admin")

	admin.Get("/stats", middleware.RequirePermission(d.Users, rbac.PermViewAdminStats, log), h.Admin.Stats)

	users := admin.Group("/users", middleware.RequirePermission(d.Users, rbac.PermManageUsers, log))
	users.Get("/", h.Admin.ListUsers)
	users.Get("/:id", h.Admin.GetUser)
	users.Get("/:id/history", h.Admin.UserHistory)
	users.Put("/:id", h.Admin.UpdateUser)
	users.Delete("/:id", h.Admin.DeleteUser)

	categories := admin.Group("/categories", middleware.RequirePermission(d.Users, rbac.PermManageCategories, log))
	categories.Get("/", h.Category.AdminList)
	categories.Post("/", h.Category.AdminCreate)
	categories.Get("/:id", h.Category.AdminGet)
	categories.Put("/:id", h.Category.AdminUpdate)
	categories.Delete("/:id", h.Category.AdminDelete)

	listings := admin.Group("/listings", middleware.RequirePermission(d.Users, rbac.PermModerateListings, log))
	listings.Get("/", h.Admin.ListListings)
	listings.Get("/:id", h.Admin.GetListing)
	listings.Get("/:id/history", h.Admin.ListingHistory)
	listings.Put("/:id", h.Admin.UpdateListing)
	listings.Delete("/:id", h.Admin.DeleteListing)
	listings.Patch("/:id/toggle-active", h.Admin.ToggleActive)
	listings.Patch("/:id/toggle-featured", h.Admin.ToggleFeatured)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(h.WS.HandleWS))
}
