// Package ginserver exposes the receiver's HTTP endpoints for sample upload
// and inspection.
package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/services/ingest"
	"github.com/andrasq/kstats/internal/services/intake"
)

// Handler wires the ingest service into gin-compatible HTTP handlers.
type Handler struct {
	svc *ingest.Service
}

// NewHandler returns a Handler backed by the given ingest service.
func NewHandler(svc *ingest.Service) *Handler {
	return &Handler{svc: svc}
}

// Upload handles `POST /v1/custom` with a JSON batch payload.
func (h *Handler) Upload(c *gin.Context) {
	var batch domain.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	ctx := intake.WithClientIP(c.Request.Context(), c.ClientIP())
	n, err := h.svc.Accept(ctx, batch)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": n})
}

// ListSamples handles `GET /v1/samples` returning all stored samples.
func (h *Handler) ListSamples(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": items})
}

// GetSample handles `GET /v1/samples/:name` returning one name's samples.
func (h *Handler) GetSample(c *gin.Context) {
	name := c.Param("name")
	items, err := h.svc.Get(c.Request.Context(), name)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": items})
}

// Ping proxies `GET /ping` to the storage health check.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "storage ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

// Index renders a basic HTML table of stored samples.
func (h *Handler) Index(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>samples</title>")
	sb.WriteString("<style>body{font-family:system-ui,Arial,sans-serif}table{border-collapse:collapse}td,th{border:1px solid #ddd;padding:6px 10px}</style>")
	sb.WriteString("</head><body>")
	sb.WriteString("<h1>Samples</h1>")
	sb.WriteString("<table><tr><th>Name</th><th>Value</th><th>Collected</th><th>Instance</th></tr>")
	for _, smp := range items {
		sb.WriteString("<tr><td>")
		sb.WriteString(smp.Name)
		sb.WriteString("</td><td>")
		sb.WriteString(strconv.FormatFloat(smp.Value, 'f', -1, 64))
		sb.WriteString("</td><td>")
		sb.WriteString(strconv.FormatInt(smp.CollectedAt, 10))
		sb.WriteString("</td><td>")
		sb.WriteString(smp.Instance)
		sb.WriteString("</td></tr>")
	}
	sb.WriteString("</table>")
	sb.WriteString("</body></html>")

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(sb.String()))
}

func httpError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		c.String(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrBadProtoVersion):
		c.String(http.StatusBadRequest, "bad request")
	default:
		c.String(http.StatusInternalServerError, "internal error")
	}
}
