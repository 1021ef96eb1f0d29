package user

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims carries the user id under the "id" claim; both
// middleware.ActorID and the websocket token check read that key.
type AuthClaims struct {
	Id uint `json:"id"`
	jwt.RegisteredClaims
}

const tokenTTL = 72 * time.Hour

var GenerateJWT = func(id uint) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		Id: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
