package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are infrastructure endpoints served to anyone. Request
// logging and rate limiting skip them.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// PublicSkipper reports whether the matched route is a public
// infrastructure endpoint.
func PublicSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
