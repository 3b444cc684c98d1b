package session

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenLifetime derives an access token's remaining lifetime in seconds
// from its exp claim. The token is parsed without signature verification;
// the client never validates tokens, it only schedules around them.
// Returns 0 when the lifetime cannot be determined, leaving the expiry
// unknown.
func TokenLifetime(token string, now time.Time) int {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(token, jwtlib.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	seconds := int(exp.Time.Sub(now).Seconds())
	if seconds <= 0 {
		return 0
	}
	return seconds
}
