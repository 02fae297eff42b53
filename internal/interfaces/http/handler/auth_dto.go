package handler

import "time"

// RefreshTokenRequest is the request body for refreshing an access token
// @name HandlerRefreshTokenRequest
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse carries an issued access/refresh token pair
// @name HandlerTokenResponse
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// RefreshTokenResponse is the refresh endpoint's payload
// @name HandlerRefreshTokenResponse
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

// LogoutResponse is the logout endpoint's payload
// @name HandlerLogoutResponse
type LogoutResponse struct {
	Message string `json:"message"`
}
