package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/online-cinema/internal/model"
)

// RequireRole returns a middleware that enforces a minimum role for
// the authenticated user. Roles form a hierarchy (ADMIN over
// MODERATOR over USER), so a single minimum covers a route instead of
// per-role branching in every handler. It assumes JWTAuth already
// stored the verified role in the context under "role"; a missing or
// unknown role is rejected with 403 Forbidden.
func RequireRole(min model.Role) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(model.Role)
            if !ok || !role.AtLeast(min) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
