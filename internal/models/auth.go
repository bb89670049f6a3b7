package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the learner identity attached to each request.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Pagination describes page metadata returned alongside lists.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
