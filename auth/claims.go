package auth

import "github.com/golang-jwt/jwt/v5"

// Claims defines the JWT claims structure for scriptshelf sessions.
// It embeds jwt.RegisteredClaims for standard fields (exp, iat, jti) and
// adds the fields the admin dashboard needs.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
