package match

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the match engine into the HTTP server.
type Registrar struct {
	engine *Engine
}

// NewRegistrar creates a new Registrar for the match engine.
func NewRegistrar(engine *Engine) *Registrar {
	return &Registrar{engine: engine}
}

// Register attaches the interaction routes.
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.POST("/users/:id/like", r.like)
	api.DELETE("/users/:id/like", r.unlike)
	api.POST("/users/:id/block", r.block)
	api.DELETE("/users/:id/block", r.unblock)
	api.POST("/users/:id/report", r.report)
}

func (r *Registrar) like(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	targetID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := r.engine.LikeUser(c.Request.Context(), viewerID, targetID)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (r *Registrar) unlike(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	targetID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	if err := r.engine.UnlikeUser(c.Request.Context(), viewerID, targetID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) block(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	targetID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	if err := r.engine.BlockUser(c.Request.Context(), viewerID, targetID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) unblock(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	targetID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	if err := r.engine.UnblockUser(c.Request.Context(), viewerID, targetID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) report(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	targetID, ok := server.ParseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)
	if err := r.engine.ReportUser(c.Request.Context(), viewerID, targetID, body.Reason); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
