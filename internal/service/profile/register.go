package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the profile service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the profile service.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the profile routes.
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.GET("/users/:id", r.get)
	api.PUT("/profile", r.update)
	api.POST("/profile/tags", r.addTag)
	api.DELETE("/profile/tags", r.removeTag)
	api.POST("/profile/photos", r.addPhoto)
	api.DELETE("/profile/photos/:photoID", r.deletePhoto)
	api.PUT("/profile/photos/:photoID/profile", r.setProfilePhoto)
}

func (r *Registrar) get(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	targetID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	view, err := r.svc.Get(c.Request.Context(), viewerID, targetID)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (r *Registrar) update(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := r.svc.Update(c.Request.Context(), viewerID, in)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) addTag(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := r.svc.AddTag(c.Request.Context(), viewerID, body.Name)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (r *Registrar) removeTag(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter required"})
		return
	}
	if err := r.svc.RemoveTag(c.Request.Context(), viewerID, name); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) addPhoto(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	var body struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	photo, err := r.svc.AddPhoto(c.Request.Context(), viewerID, body.Path)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

func (r *Registrar) deletePhoto(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	photoID, ok := server.ParseID(c, "photoID")
	if !ok {
		return
	}
	if err := r.svc.DeletePhoto(c.Request.Context(), viewerID, photoID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) setProfilePhoto(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	photoID, ok := server.ParseID(c, "photoID")
	if !ok {
		return
	}
	if err := r.svc.SetProfilePhoto(c.Request.Context(), viewerID, photoID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
