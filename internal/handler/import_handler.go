package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/service"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

// ImportHandler exposes spreadsheet import endpoints.
type ImportHandler struct {
	service *service.ImportService
	metrics *service.MetricsService
}

// NewImportHandler constructs the handler.
func NewImportHandler(svc *service.ImportService, metrics *service.MetricsService) *ImportHandler {
	return &ImportHandler{service: svc, metrics: metrics}
}

// Profiles lists the available mapping profiles.
func (h *ImportHandler) Profiles(c *gin.Context) {
	names := h.service.Profiles()
	sort.Strings(names)
	response.JSON(c, http.StatusOK, names, nil)
}

// Import runs a spreadsheet batch import through the selected profile.
func (h *ImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	profile := c.PostForm("profile")
	if profile == "" {
		profile = c.Query("profile")
	}

	result, err := h.service.ImportXLSX(c.Request.Context(), profile, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveImport(result.Imported, result.Failed)
	response.JSON(c, http.StatusOK, result, nil)
}
