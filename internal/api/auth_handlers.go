package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobgenie/internal/models"
)

const oauthStateCookie = "oauth_state"

// ==================== Registration ====================

// RegisterCandidate handles POST /api/v1/auth/candidates/register
func (h *Handler) RegisterCandidate(c *gin.Context) {
	var req models.RegisterCandidateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Accounts.RegisterCandidate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Check your email for the verification code.",
		"user":    user.ToResponse(),
	})
}

// RegisterEmployer handles POST /api/v1/auth/employers/register
func (h *Handler) RegisterEmployer(c *gin.Context) {
	var req models.RegisterEmployerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, company, err := h.Accounts.RegisterEmployer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Check your email for the verification code.",
		"user":    user.ToResponse(),
		"company": company,
	})
}

// ==================== Verification ====================

// VerifyEmail handles POST /api/v1/auth/verify
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.Accounts.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResendVerification handles POST /api/v1/auth/verify/resend
func (h *Handler) ResendVerification(c *gin.Context) {
	var req models.EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "If the account exists and is unverified, a new code has been sent.")
}

// ==================== Sessions ====================

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *Handler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.Accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Logged out")
}

// ==================== Passwords ====================

// ForgotPassword handles POST /api/v1/auth/password/forgot
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req models.EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "If the account exists, a reset code has been sent.")
}

// ResetPassword handles POST /api/v1/auth/password/reset
func (h *Handler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Password has been reset. Please sign in again.")
}

// ChangePassword handles PUT /api/v1/me/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.ChangePassword(c.Request.Context(), mustUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Password changed")
}

// GetMe handles GET /api/v1/me
func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.Accounts.Me(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// ==================== Invitations ====================

// AcceptInvitation handles POST /api/v1/auth/invitations/accept
func (h *Handler) AcceptInvitation(c *gin.Context) {
	var req models.AcceptInvitationRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.Invitations.Accept(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ==================== OAuth ====================

// GoogleAuth handles GET /api/v1/auth/google
func (h *Handler) GoogleAuth(c *gin.Context) {
	state, err := GenerateState()
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 300, "/", "", h.secureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, h.Google.GetAuthURL(state))
}

// GoogleCallback handles GET /api/v1/auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	expected, err := c.Cookie(oauthStateCookie)
	if err != nil || expected == "" || expected != c.Query("state") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "OAuth state mismatch",
			Code:  "INVALID_STATE",
		})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Authorization code required",
			Code:  "MISSING_CODE",
		})
		return
	}

	info, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "OAuth exchange failed",
			Code:    "OAUTH_ERROR",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.Accounts.GoogleSignIn(c.Request.Context(), info)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
