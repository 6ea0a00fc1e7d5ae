package handlers

import (
	"net/http"

	"vinylshelf/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Home renders the landing page, with a login link or the signed-in user.
func Home(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"User": user,
	})
}
