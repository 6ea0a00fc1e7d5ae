package handlers

import (
	"net/http"

	"vinylshelf/internal/middleware"
	"vinylshelf/internal/models"
	"vinylshelf/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AlbumPath is where every album mutation redirects back to.
const AlbumPath = "/album"

// AlbumHandler renders and mutates the authenticated user's album
// collection.
type AlbumHandler struct {
	albumService services.AlbumService
}

// NewAlbumHandler creates a new AlbumHandler.
func NewAlbumHandler(albumService services.AlbumService) *AlbumHandler {
	return &AlbumHandler{albumService: albumService}
}

// List renders the collection page with an empty create form.
func (h *AlbumHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	logrus.WithField("user_id", user.ID).Info("Listing albums")

	albums, err := h.albumService.ListAlbums(c.Request.Context(), user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list albums")
		c.String(http.StatusInternalServerError, "failed to list albums")
		return
	}

	c.HTML(http.StatusOK, "albums.html", gin.H{
		"Albums": albums,
		"Album":  (*models.Album)(nil),
		"User":   user,
	})
}

// Details renders one album with its edit form.
func (h *AlbumHandler) Details(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, AlbumPath)
		return
	}

	album, err := h.albumService.GetAlbumByID(c.Request.Context(), user.ID, id)
	if err != nil {
		logrus.WithError(err).WithField("album_id", id).Warn("Failed to get album")
		c.Redirect(http.StatusSeeOther, AlbumPath)
		return
	}

	albums, err := h.albumService.ListAlbums(c.Request.Context(), user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list albums")
	}

	c.HTML(http.StatusOK, "albums.html", gin.H{
		"Albums": albums,
		"Album":  album,
		"User":   user,
	})
}

// Create adds an album to the user's collection from the submitted form.
func (h *AlbumHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var form models.AlbumForm
	if err := c.ShouldBind(&form); err != nil {
		logrus.WithError(err).Warn("Invalid album form")
		c.String(http.StatusBadRequest, "invalid album data")
		return
	}

	if _, err := h.albumService.CreateAlbum(c.Request.Context(), user.ID, form); err != nil {
		logrus.WithError(err).Error("Failed to create album")
		c.String(http.StatusBadRequest, "failed to create album")
		return
	}

	c.Redirect(http.StatusSeeOther, AlbumPath)
}

// Update overwrites an album the user owns.
func (h *AlbumHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid album id")
		return
	}

	var form models.AlbumForm
	if err := c.ShouldBind(&form); err != nil {
		logrus.WithError(err).Warn("Invalid album form")
		c.String(http.StatusBadRequest, "invalid album data")
		return
	}

	if err := h.albumService.UpdateAlbum(c.Request.Context(), user.ID, id, form); err != nil {
		logrus.WithError(err).WithField("album_id", id).Error("Failed to update album")
		c.String(http.StatusBadRequest, "failed to update album")
		return
	}

	c.Redirect(http.StatusSeeOther, AlbumPath)
}

// Delete removes an album.
func (h *AlbumHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid album id")
		return
	}

	if err := h.albumService.DeleteAlbum(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("album_id", id).Error("Failed to delete album")
		c.String(http.StatusNotFound, "failed to delete album")
		return
	}

	c.Redirect(http.StatusSeeOther, AlbumPath)
}
