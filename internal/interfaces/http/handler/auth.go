package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/infrastructure/auth"
	"github.com/furlanettoeduardo/ERP-PRS-sub000/internal/interfaces/http/middleware"
)

// AuthHandler handles token lifecycle endpoints. Token pairs are issued
// out-of-band by the identity provider; this API only rotates and revokes
// them.
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, blacklist: blacklist}
}

// RefreshToken godoc
// @ID           refreshToken
// @Summary      Refresh access token
// @Description  Get new access token using refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} APIResponse[RefreshTokenResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefreshTokenResponse{
		Token: TokenResponse{
			AccessToken:           pair.AccessToken,
			RefreshToken:          pair.RefreshToken,
			AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
			RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
			TokenType:             pair.TokenType,
		},
	})
}

// Logout godoc
// @ID           logout
// @Summary      Log out
// @Description  Blacklists the current token until it would have expired
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	// Without a blacklist backend logout degrades to a client-side discard.
	if h.blacklist != nil {
		if err := h.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, claims.GetRemainingTTL()); err != nil {
			h.InternalError(c, "Failed to revoke token")
			return
		}
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}
