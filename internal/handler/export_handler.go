package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/service"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams filtered article sets as downloadable files.
type ExportHandler struct {
	service *service.ExportService
	metrics *service.MetricsService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{service: svc, metrics: metrics}
}

// XLSX exports the filtered articles as a workbook.
func (h *ExportHandler) XLSX(c *gin.Context) {
	payload, err := h.service.ExportXLSX(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport("xlsx")
	serveFile(c, payload, exportFileName("articoli", "xlsx"), xlsxContentType)
}

// CSV exports the filtered articles as CSV.
func (h *ExportHandler) CSV(c *gin.Context) {
	payload, err := h.service.ExportCSV(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport("csv")
	serveFile(c, payload, exportFileName("articoli", "csv"), "text/csv")
}

// XLSXByCustomer exports one worksheet per customer.
func (h *ExportHandler) XLSXByCustomer(c *gin.Context) {
	payload, err := h.service.ExportXLSXByCustomer(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveExport("xlsx_by_customer")
	serveFile(c, payload, exportFileName("articoli_per_cliente", "xlsx"), xlsxContentType)
}

func exportFileName(stem, ext string) string {
	return fmt.Sprintf("%s_%s.%s", stem, time.Now().Format("20060102_150405"), ext)
}

func serveFile(c *gin.Context, payload []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
