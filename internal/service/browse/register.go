package browse

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/server"
	"github.com/emberapp/ember-server/internal/utils/pagination"
)

// Registrar ties the browse service into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the browse service.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the browse routes.
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.GET("/browse/suggestions", r.suggestions)
	api.GET("/browse/search", r.search)
}

func (r *Registrar) suggestions(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}
	candidates, err := r.svc.Suggestions(c.Request.Context(), viewerID)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "total": len(candidates)})
}

func (r *Registrar) search(c *gin.Context) {
	viewerID, ok := server.ViewerID(c)
	if !ok {
		return
	}

	filters := SearchFilters{
		AgeMin:   queryInt(c, "age_min"),
		AgeMax:   queryInt(c, "age_max"),
		FameMin:  queryFloat(c, "fame_min"),
		FameMax:  queryFloat(c, "fame_max"),
		Location: c.Query("location"),
	}
	if raw := c.Query("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filters.Tags = append(filters.Tags, t)
			}
		}
	}

	sortBy := Sort{
		By:   c.Query("sort"),
		Desc: c.DefaultQuery("order", "desc") == "desc",
	}
	page := pagination.Page{
		Number: atoiDefault(c.Query("page"), 1),
		Limit:  atoiDefault(c.Query("limit"), 0),
	}

	result, err := r.svc.Search(c.Request.Context(), viewerID, filters, sortBy, page)
	if err != nil {
		server.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string) *int {
	if raw := c.Query(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return &n
		}
	}
	return nil
}

func queryFloat(c *gin.Context, name string) *float64 {
	if raw := c.Query(name); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return &f
		}
	}
	return nil
}

func atoiDefault(raw string, def int) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return def
}
