package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired solo inspecciona el exp de tokens con formato JWT; los tokens opacos nunca expiran del lado cliente.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
