package http

import (
	"errors"
	"net/http"

	"waitlist_funnel/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies operator credentials and starts the dashboard session.
// Both failure kinds may be retried at once; there is no lockout.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), SanitizeString(req.Email), req.Password)
	switch {
	case errors.Is(err, usecases.ErrCredentialNotFound):
		errorJSON(c, http.StatusUnauthorized, "credential_not_found", "No admin account found for that email")
		return
	case errors.Is(err, usecases.ErrInvalidPassword):
		errorJSON(c, http.StatusUnauthorized, "invalid_password", "Incorrect password")
		return
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("login failed")
		errorJSON(c, http.StatusInternalServerError, "auth_unavailable", "Sign-in is unavailable, try again")
		return
	}

	c.JSON(http.StatusOK, session)
}

// Logout drops the operator's dashboard state.
func (h *Handler) Logout(c *gin.Context) {
	h.dashboard.End(sessionID(c))
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
