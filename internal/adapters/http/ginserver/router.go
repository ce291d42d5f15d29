package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the receiver's route table around the given handler.
func NewRouter(h *Handler, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/", h.Index)

	r.POST("/v1/custom", h.Upload)
	r.POST("/v1/custom/", h.Upload)
	r.GET("/v1/samples", h.ListSamples)
	r.GET("/v1/samples/:name", h.GetSample)

	return r
}
