package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/service"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

// ReportRequest selects the articles a printable document covers.
type ReportRequest struct {
	IDs []string `json:"ids"`
}

// ReportHandler renders printable documents for selected articles.
type ReportHandler struct {
	service *service.ReportService
	metrics *service.MetricsService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc *service.ReportService, metrics *service.MetricsService) *ReportHandler {
	return &ReportHandler{service: svc, metrics: metrics}
}

// selection reads IDs from the JSON body, falling back to the ids query
// parameter so a selection can also be linked directly.
func selection(c *gin.Context) ([]string, error) {
	if c.Request.Method == "POST" {
		var req ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid selection payload")
		}
		return req.IDs, nil
	}
	raw := c.Query("ids")
	if raw == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ids parameter is required")
	}
	return strings.Split(raw, ","), nil
}

func (h *ReportHandler) render(c *gin.Context, format string, render func([]string) ([]byte, error)) {
	ids, err := selection(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := render(ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport(format)
	serveFile(c, payload, exportFileName(format, "pdf"), "application/pdf")
}

// Picklist renders the warehouse picking document.
func (h *ReportHandler) Picklist(c *gin.Context) {
	h.render(c, "lista_prelievo", func(ids []string) ([]byte, error) {
		return h.service.Picklist(c.Request.Context(), ids)
	})
}

// Transport renders the shipping document.
func (h *ReportHandler) Transport(c *gin.Context) {
	h.render(c, "documento_trasporto", func(ids []string) ([]byte, error) {
		return h.service.Transport(c.Request.Context(), ids)
	})
}

// Labels renders printable labels for the selection.
func (h *ReportHandler) Labels(c *gin.Context) {
	h.render(c, "etichette", func(ids []string) ([]byte, error) {
		return h.service.Labels(c.Request.Context(), ids)
	})
}
