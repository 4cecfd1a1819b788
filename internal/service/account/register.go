package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the account service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the account service.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the account routes.
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.POST("/accounts", r.register)
	api.POST("/accounts/verify", r.verify)
	api.POST("/accounts/login-stamp", r.loginStamp)
	api.POST("/accounts/logout", r.logout)
}

func (r *Registrar) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := r.svc.Register(c.Request.Context(), in)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

func (r *Registrar) verify(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	if err := r.svc.VerifyEmail(c.Request.Context(), viewerID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) loginStamp(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	if err := r.svc.TouchLogin(c.Request.Context(), viewerID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) logout(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	if err := r.svc.Logout(c.Request.Context(), viewerID); err != nil {
		server.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
