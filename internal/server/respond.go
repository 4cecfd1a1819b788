package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	svcErr "github.com/emberapp/ember-server/internal/errors"
)

// ViewerHeader carries the opaque viewer identity supplied by the auth
// collaborator sitting in front of this core.
const ViewerHeader = "X-Viewer-ID"

// ViewerID extracts the current viewer identity from the request.
// Aborts with 401 when absent or malformed.
func ViewerID(c *gin.Context) (uint64, bool) {
	raw := c.GetHeader(ViewerHeader)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid viewer identity"})
		return 0, false
	}
	return id, true
}

// ParseID parses a numeric path parameter, aborting with 400 on failure.
func ParseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// Error writes a domain error with the status its kind maps to.
func Error(c *gin.Context, err error) {
	c.JSON(svcErr.HTTPStatus(err), gin.H{"error": err.Error()})
}
