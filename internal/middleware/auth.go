package middleware

import (
	"net/http"

	"vinylshelf/internal/models"
	"vinylshelf/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userContextKey = "vinylshelf/current_user"

// LoadUser resolves the authenticated user from the session and injects it
// into the request context. Requests without a user pass through
// untouched.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.Get(c)
		user, err := sess.User(c)
		if err != nil {
			logrus.WithError(err).Warn("Failed to resolve user from session")
		}
		if user != nil {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// RequireUser aborts with a redirect home unless LoadUser found an
// authenticated user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			logrus.WithField("path", c.Request.URL.Path).Debug("Anonymous request to protected route")
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user injected by LoadUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
