package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the notification service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the notification service.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the notification routes.
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.GET("/notifications", r.list)
	api.GET("/notifications/unread-count", r.unreadCount)
	api.POST("/notifications/read-all", r.markAllRead)
	api.POST("/notifications/:id/read", r.markRead)
	api.DELETE("/notifications/:id", r.delete)
}

func (r *Registrar) list(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	var token *string
	if raw := c.Query("token"); raw != "" {
		token = &raw
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	views, nextToken, err := r.svc.List(c.Request.Context(), viewerID, token, limit)
	if err != nil {
		server.Error(c, err)
		return
	}
	resp := gin.H{"notifications": views}
	if nextToken != nil {
		resp["next_token"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}

func (r *Registrar) unreadCount(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	count, err := r.svc.UnreadCount(c.Request.Context(), viewerID)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (r *Registrar) markRead(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	id, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.MarkRead(c.Request.Context(), viewerID, id); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) markAllRead(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	if err := r.svc.MarkAllRead(c.Request.Context(), viewerID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) delete(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	id, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.Delete(c.Request.Context(), viewerID, id); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
