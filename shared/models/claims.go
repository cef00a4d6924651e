package models

import "github.com/golang-jwt/jwt/v5"

// Claims - поля JWT, которые выдает auth-сервис.
type Claims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}
