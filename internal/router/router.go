package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/online-cinema/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/online-cinema/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/online-cinema/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication and account-lifecycle routes and
// applies the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session.  Each of these handlers is responsible
	// for creating accounts or generating and exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	// Registration creates a PENDING account and emails an activation token;
	// no session tokens are issued until the account has been activated.
	g.POST("/register", a.Register)
	// Activate a PENDING account by presenting the emailed activation token.
	g.POST("/activate", a.Activate)
	// Re-send the activation email.  Any still-live activation token for the
	// account is revoked and a fresh one is issued in its place.
	g.POST("/activate/resend", a.ResendActivation)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh.
	// This rotates the refresh token: the presented one is revoked and a new
	// pair is returned.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to log out using a refresh token.  The handler
	// accepts a JSON body containing a `refresh_token` and will invalidate
	// that token.  A valid token yields a 204 response.
	g.POST("/logout", a.Logout)
	// Request a password reset email.  The endpoint answers 200 regardless of
	// whether the address belongs to an account so callers cannot probe which
	// emails are registered.
	g.POST("/password-reset/request", a.RequestPasswordReset)
	// Complete a password reset with the emailed token and a new password.
	// All refresh tokens of the account are revoked on success.
	g.POST("/password-reset/complete", a.CompletePasswordReset)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Any authenticated endpoint requires at least the USER role; the
	// middleware rejects requests with missing or unknown roles.
	auth.Use(middleware.RequireRole(model.RoleUser))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)
	// Change the password of the authenticated account.  The old password is
	// verified first and all refresh tokens are revoked on success.
	auth.POST("/change-password", a.ChangePassword)

	// Account administration requires the ADMIN role.  Disabling is the
	// soft delete: the row stays so purchases keep a valid owner.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/accounts/:id/disable", a.DisableAccount)
}

// RegisterCatalog registers the movie catalog routes.  Reads are public so
// guests can browse the catalog; writes require at least the MODERATOR role.
// The optional cache middleware is applied to the public reads only.
func RegisterCatalog(e *echo.Echo, m *handler.MovieHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	// Public browse endpoints.  When a cache middleware is supplied the list
	// and detail responses are served from Redis on repeat requests.
	pub := e.Group("/v1/movies")
	if cache != nil {
		pub.Use(cache)
	}
	pub.GET("", m.List)
	pub.GET("/:id", m.GetByID)

	// Catalog management requires a valid access token carrying at least the
	// MODERATOR role.
	mod := e.Group("/v1/movies")
	mod.Use(middleware.JWTAuth(jwtSecret))
	mod.Use(middleware.RequireRole(model.RoleModerator))
	mod.POST("", m.Create)
	mod.DELETE("/:id", m.Delete)
}

// RegisterCart registers the cart and purchase routes.  All of them require
// an authenticated, at least USER-role session.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleUser))

	// Cart contents and mutations.
	g.GET("/cart", h.GetCart)
	g.POST("/cart", h.AddItem)
	g.DELETE("/cart/:movie_id", h.RemoveItem)
	g.DELETE("/cart", h.ClearCart)
	// Complete the purchase of the whole cart.
	g.POST("/cart/checkout", h.Checkout)
	// Completed purchases of the authenticated account.
	g.GET("/purchases", h.ListPurchases)
}
