// Package router wires the HTTP routes to their handlers and applies
// the auth, role, cache and rate-limit middleware per group.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/krizzk/be-koszhunter/internal/config"
	"github.com/krizzk/be-koszhunter/internal/handler"
	"github.com/krizzk/be-koszhunter/internal/middleware"
	"github.com/krizzk/be-koszhunter/internal/model"
)

// Deps carries everything the route table needs.
type Deps struct {
	Cfg       config.Config
	Redis     *redis.Client
	Users     *handler.UserHandler
	Kos       *handler.KosHandler
	Rooms     *handler.RoomHandler
	Bookings  *handler.BookingHandler
	Facility  *handler.FacilityHandler
	Reviews   *handler.ReviewHandler
	Reports   *handler.ReportHandler
	Health    echo.HandlerFunc
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RateLimit(d.Redis, d.RateLimit))

	auth := middleware.JWTAuth(d.Cfg.JWTSecret)
	ownerOnly := middleware.RequireRole(model.RoleOwner)
	anyRole := middleware.RequireRole(model.RoleOwner, model.RoleSociety)
	cached := middleware.CacheResponse(d.Redis, d.Cache)

	e.GET("/health", d.Health)
	e.Static("/public", d.Cfg.PublicDir)

	// users
	u := e.Group("/users")
	u.POST("/register", d.Users.Register)
	u.POST("/login", d.Users.Login)
	u.GET("/me", d.Users.Me, auth, anyRole)
	u.PUT("/me", d.Users.Update, auth, anyRole)
	u.PUT("/me/picture", d.Users.UpdatePicture, auth, anyRole)
	u.GET("", d.Users.List, auth, ownerOnly)
	u.DELETE("/:id", d.Users.Delete, auth, anyRole)
	u.GET("/dashboard", d.Users.Dashboard, auth, ownerOnly)

	// kos listings; reads are public and cached
	k := e.Group("/kos")
	k.GET("", d.Kos.List, cached)
	k.GET("/popular", d.Kos.Popular, cached)
	k.GET("/:id", d.Kos.Get, cached)
	k.GET("/:id/rooms", d.Rooms.ListByKos, cached)
	k.GET("/:id/reviews", d.Reviews.ListByKos, cached)
	k.POST("", d.Kos.Create, auth, ownerOnly)
	k.PUT("/:id", d.Kos.Update, auth, ownerOnly)
	k.PUT("/:id/picture", d.Kos.UpdatePicture, auth, ownerOnly)
	k.DELETE("/:id", d.Kos.Delete, auth, ownerOnly)

	// rooms
	r := e.Group("/rooms")
	r.GET("/:id", d.Rooms.Get, cached)
	r.POST("", d.Rooms.Create, auth, ownerOnly)
	r.PUT("/:id", d.Rooms.Update, auth, ownerOnly)
	r.PUT("/:id/picture", d.Rooms.UpdatePicture, auth, ownerOnly)
	r.DELETE("/:id", d.Rooms.Delete, auth, ownerOnly)

	// bookings
	b := e.Group("/bookings", auth)
	b.POST("", d.Bookings.Create, middleware.RequireRole(model.RoleSociety))
	b.GET("", d.Bookings.List, anyRole)
	b.GET("/history", d.Bookings.History, ownerOnly)
	b.GET("/:id", d.Bookings.Get, anyRole)
	b.PUT("/:id/status", d.Bookings.SetStatus, anyRole)
	b.GET("/:id/invoice", d.Bookings.Invoice, anyRole)
	b.DELETE("/:id", d.Bookings.Delete, anyRole)

	// facilities
	f := e.Group("/facilities", auth)
	f.POST("", d.Facility.Create, ownerOnly)
	f.PUT("/:id", d.Facility.Update, ownerOnly)
	f.DELETE("/:id", d.Facility.Delete, ownerOnly)

	// reviews
	v := e.Group("/reviews", auth)
	v.POST("", d.Reviews.Create, middleware.RequireRole(model.RoleSociety))
	v.PUT("/:id/reply", d.Reviews.Reply, ownerOnly)
	v.DELETE("/:id", d.Reviews.Delete, anyRole)

	// reports
	rp := e.Group("/reports", auth, ownerOnly)
	rp.GET("/revenue", d.Reports.Revenue)
}
