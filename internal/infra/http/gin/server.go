package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"quickhost/internal/infra/config"
	"quickhost/internal/infra/obs"
)

type ListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	SetActive(c *gin.Context)
	Delete(c *gin.Context)
}

type BookingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type ReviewHTTP interface {
	ListForListing(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type FavoriteHTTP interface {
	List(c *gin.Context)
	Add(c *gin.Context)
	Remove(c *gin.Context)
}

type Handlers struct {
	Listing  ListingHTTP
	Booking  BookingHTTP
	Review   ReviewHTTP
	Favorite FavoriteHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without binding an address.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(obsMW.RequestID())
	router.Use(obsMW.Recovery())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", obs.UserIDHeader, idempotencyHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Listing != nil {
		api.GET("/listings", h.Listing.List)
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
		api.PUT("/listings/:id", h.Listing.Update)
		api.PATCH("/listings/:id", h.Listing.Update)
		api.PATCH("/listings/:id/active", h.Listing.SetActive)
		api.DELETE("/listings/:id", h.Listing.Delete)
	}
	if h.Review != nil {
		api.GET("/listings/:id/reviews", h.Review.ListForListing)
		api.POST("/listings/:id/reviews", h.Review.Create)
		api.PATCH("/reviews/:id", h.Review.Update)
		api.DELETE("/reviews/:id", h.Review.Delete)
	}
	if h.Booking != nil {
		api.GET("/bookings", h.Booking.List)
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id", h.Booking.Update)
		api.DELETE("/bookings/:id", h.Booking.Delete)
	}
	if h.Favorite != nil {
		api.GET("/favorites", h.Favorite.List)
		api.POST("/favorites", h.Favorite.Add)
		api.DELETE("/favorites/:id", h.Favorite.Remove)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
