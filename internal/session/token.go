package session

import "github.com/golang-jwt/jwt/v5"

// usernameFromToken extracts the "user" claim from the demo service's login
// token. The service does not publish its signing key, so the claims are read
// without signature verification; the token is only used to scope local
// state, never to grant anything. Returns "" when the token is not a JWT or
// carries no such claim.
func usernameFromToken(token string) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	user, ok := claims["user"].(string)
	if !ok {
		return ""
	}
	return user
}
