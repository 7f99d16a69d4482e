package handler

import (
	"orbital/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// getClaims retrieves the authenticated user's claims placed in the
// context by the auth middleware. Handlers treat a missing value as an
// unauthenticated request.
func getClaims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	return claims, ok
}
