package middleware

import (
	"net/http"
	"os"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

func SetupJWTMiddleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(os.Getenv("JWT_SECRET")),
	})
}

// ActorID extracts the authenticated user id from the token the JWT
// middleware stored on the context. Core calls always receive the actor
// explicitly instead of reading ambient session state.
func ActorID(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user id not found in token claims")
	}
	return strconv.Itoa(int(id)), nil
}
