package routes

import (
	"net/http"
	"time"

	"veridie/handlers"
	"veridie/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the checkout and confirmation endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("/checkout", hb.Booking.CreateCheckoutBookingHandler)
		api.POST("/confirm", hb.Booking.ConfirmBookingHandler)
	}
}

// RegisterCalendlyRoutes sets up the Calendly connect flow and event-type
// endpoints.
func RegisterCalendlyRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/calendly")
	{
		api.GET("/connect", hb.Calendly.ConnectHandler)
		api.GET("/callback", hb.Calendly.CallbackHandler)
		api.GET("/event-types", hb.Calendly.ListEventTypesHandler)
		api.DELETE("/disconnect/:id", hb.Calendly.DisconnectHandler)
	}

	consultants := r.Group("/api/consultants")
	{
		consultants.POST("/:id/event-type", hb.Calendly.UpdateEventTypeMappingHandler)
	}
}

// RegisterAdminRoutes sets up JWT-protected admin endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	{
		api.Use(middleware.JWTAuthAdminMiddleware(hb.AdminJWTSecret))
		api.GET("/diagnostics", hb.Diagnostics.ReportHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Veridie"})
	})
}

// RegisterRoutes applies CORS and registers all route groups.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterCalendlyRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
