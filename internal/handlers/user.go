package handlers

import (
	"net/http"

	"vinylshelf/internal/models"
	"vinylshelf/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserPath is where every user mutation redirects back to.
const UserPath = "/user"

// UserHandler renders and mutates user records. These are administrative
// pages; accounts themselves are created by the login flow.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List renders the user overview page.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		c.String(http.StatusInternalServerError, "failed to list users")
		return
	}

	c.HTML(http.StatusOK, "users.html", gin.H{
		"Users": users,
		"User":  (*models.User)(nil),
	})
}

// Details renders one user with an edit form.
func (h *UserHandler) Details(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, UserPath)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Warn("Failed to get user")
		c.Redirect(http.StatusSeeOther, UserPath)
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
	}

	c.HTML(http.StatusOK, "users.html", gin.H{
		"Users": users,
		"User":  user,
	})
}

// Update overwrites the editable fields of a user.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid user id")
		return
	}

	var form models.UserForm
	if err := c.ShouldBind(&form); err != nil {
		logrus.WithError(err).Warn("Invalid user form")
		c.String(http.StatusBadRequest, "invalid user data")
		return
	}

	if err := h.userService.UpdateUser(c.Request.Context(), id, form); err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to update user")
		c.String(http.StatusBadRequest, "failed to update user")
		return
	}

	c.Redirect(http.StatusSeeOther, UserPath)
}

// Delete removes a user record and, through the schema, their albums.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to delete user")
		c.String(http.StatusNotFound, "failed to delete user")
		return
	}

	c.Redirect(http.StatusSeeOther, UserPath)
}
