package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/db"
	"github.com/Skotchmaster/restoran/internal/handlers"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/middleware/csrf"
	"github.com/Skotchmaster/restoran/internal/middleware/metrics"
	"github.com/Skotchmaster/restoran/internal/models"
)

type Deps struct {
	DB       *gorm.DB
	Resolver *authmw.Resolver
	Carrier  authmw.Carrier
	Metrics  *metrics.Metrics

	CookieSecure bool

	AuthHandler    *handlers.AuthHandler
	ProfileHandler *handlers.ProfileHandler
	CatalogHandler *handlers.CatalogHandler
	ReviewHandler  *handlers.ReviewHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	api := e.Group("")
	if d.Carrier == authmw.CarrierCookie {
		api.Use(csrf.Middleware(csrf.Config{
			Secure:    d.CookieSecure,
			SkipPaths: []string{"/login", "/register", "/refresh", "/logout"},
		}))
	}

	authn := authmw.Authenticate(d.Resolver, d.Carrier)
	adminOnly := authmw.AdminOnly()

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)
	api.POST("/logout", d.AuthHandler.Logout)
	api.GET("/me", d.AuthHandler.Me, authn)
	api.GET("/me-profile", d.ProfileHandler.Get, authn)
	api.PUT("/me-profile", d.ProfileHandler.Update, authn)

	admin := api.Group("/admin", authn, adminOnly)
	admin.GET("/users", d.AuthHandler.ListUsers)
	admin.DELETE("/users/:id", d.AuthHandler.DeleteUser)

	api.GET("/restaurants", d.CatalogHandler.ListRestaurants)
	api.GET("/restaurants/:id", d.CatalogHandler.GetRestaurant)
	api.POST("/restaurants", d.CatalogHandler.CreateRestaurant, authn)
	api.PATCH("/restaurants/:id", d.CatalogHandler.PatchRestaurant, authn)
	api.DELETE("/restaurants/:id", d.CatalogHandler.DeleteRestaurant, authn)

	api.GET("/categories", d.CatalogHandler.ListCategories)
	api.POST("/categories", d.CatalogHandler.CreateCategory, authn)
	api.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory, authn, authmw.Require(models.RoleAdmin))

	api.GET("/dishes", d.CatalogHandler.ListDishes)
	api.GET("/dishes/:id", d.CatalogHandler.GetDish)
	api.POST("/dishes", d.CatalogHandler.CreateDish, authn)
	api.PATCH("/dishes/:id", d.CatalogHandler.PatchDish, authn)
	api.DELETE("/dishes/:id", d.CatalogHandler.DeleteDish, authn)

	api.GET("/reviews", d.ReviewHandler.List)
	api.GET("/reviews/:id", d.ReviewHandler.Get)
	api.POST("/reviews", d.ReviewHandler.Create, authn)
	api.DELETE("/reviews/:id", d.ReviewHandler.Delete, authn)
}
