package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/server"
	"github.com/emberapp/ember-server/internal/utils/pagination"
)

// Registrar ties the chat service and websocket hub into the HTTP server.
type Registrar struct {
	svc *Service
	hub *Hub
}

// NewRegistrar creates a new Registrar for the chat service.
func NewRegistrar(svc *Service, hub *Hub) *Registrar {
	return &Registrar{svc: svc, hub: hub}
}

// Register attaches the chat routes.
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.GET("/ws", r.websocket)
	api.POST("/chat/:id/messages", r.send)
	api.GET("/chat/:id/messages", r.history)
	api.POST("/chat/:id/read", r.markRead)
}

func (r *Registrar) websocket(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	if err := r.hub.ServeWS(c.Writer, c.Request, viewerID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
	}
}

func (r *Registrar) send(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	otherID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := r.svc.SendMessage(c.Request.Context(), viewerID, otherID, body.Body)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (r *Registrar) history(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	otherID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	page := pagination.Page{}
	page.Number, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	page.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))

	result, err := r.svc.History(c.Request.Context(), viewerID, otherID, page)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Registrar) markRead(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	otherID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	if err := r.svc.MarkConversationRead(c.Request.Context(), viewerID, otherID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
