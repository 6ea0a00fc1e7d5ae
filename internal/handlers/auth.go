package handlers

import (
	"errors"
	"net/http"

	"vinylshelf/internal/models"
	"vinylshelf/internal/services"
	"vinylshelf/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler owns the login, callback and logout routes.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login starts the authorization-code flow: generate an attempt, stash it
// in the session, send the browser to the provider.
func (h *AuthHandler) Login(c *gin.Context) {
	logrus.Info("Starting login")

	attempt, authURL, err := h.authService.NewAuthorization()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate authorization URL")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	sess := session.Get(c)
	if err := sess.SetAttempt(c, attempt); err != nil {
		logrus.WithError(err).Error("Failed to store login attempt in session")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback finishes the flow. Every failure path silently redirects home;
// the attempt is discarded whether or not the login succeeded.
func (h *AuthHandler) Callback(c *gin.Context) {
	logrus.Info("Handling provider callback")

	var query models.CallbackQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logrus.WithError(err).Warn("Callback missing state or code")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	sess := session.Get(c)
	attempt, err := sess.Attempt(c)
	if err != nil {
		logrus.WithError(err).Error("Failed to read login attempt from session")
	}
	if err := sess.RemoveAttempt(c); err != nil {
		logrus.WithError(err).Warn("Failed to discard login attempt")
	}

	user, err := h.authService.CompleteLogin(c.Request.Context(), attempt, query)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoLoginAttempt):
			logrus.Warn("Callback without a login attempt in flight")
		case errors.Is(err, services.ErrStateMismatch):
			// Possible CSRF; no detail reaches the client.
		default:
			logrus.WithError(err).Error("Login failed")
		}
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if err := sess.SetUser(c, user); err != nil {
		logrus.WithError(err).Error("Failed to store user in session")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	logrus.WithField("user_id", user.ID).Info("User authenticated")
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout clears the session and sends the browser to the provider's
// end-session endpoint.
func (h *AuthHandler) Logout(c *gin.Context) {
	logrus.Info("Starting logout")

	sess := session.Get(c)
	if err := sess.Clear(c); err != nil {
		logrus.WithError(err).Error("Failed to clear session")
	}

	c.Redirect(http.StatusSeeOther, h.authService.LogoutURL())
}
