package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of access tokens issued by the identity provider.
type JWTClaims struct {
	UserID string   `json:"userId"`
	Role   UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the verified caller resolved from the users table.
type Principal struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}
