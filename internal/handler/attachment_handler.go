package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/models"
	"github.com/magazzino-io/inventario-api/internal/service"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

// AttachmentHandler manages attachment HTTP endpoints.
type AttachmentHandler struct {
	service *service.AttachmentService
	metrics *service.MetricsService
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(svc *service.AttachmentService, metrics *service.MetricsService) *AttachmentHandler {
	return &AttachmentHandler{service: svc, metrics: metrics}
}

// Upload stores one file against an article.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	articleID, ok := idParam(c)
	if !ok {
		return
	}
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

	attachment, err := h.service.Upload(c.Request.Context(), articleID, fileHeader.Filename, src, fileHeader.Size)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveUploadSize(fileHeader.Size)
	response.Created(c, attachment)
}

// List returns the attachments of one article.
func (h *AttachmentHandler) List(c *gin.Context) {
	articleID, ok := idParam(c)
	if !ok {
		return
	}
	attachments, err := h.service.List(c.Request.Context(), articleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	response.JSON(c, http.StatusOK, attachments, nil)
}

// Delete removes one attachment.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, ok := attachmentIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SignDownload issues a time-limited download token.
func (h *AttachmentHandler) SignDownload(c *gin.Context) {
	id, ok := attachmentIDParam(c)
	if !ok {
		return
	}
	grant, err := h.service.SignDownload(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grant, nil)
}

// Download streams the binary after validating the signed token.
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := attachmentIDParam(c)
	if !ok {
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	attachment, file, err := h.service.Download(c.Request.Context(), id, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to stat attachment"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.OriginalName))
	contentType := "application/octet-stream"
	if attachment.Kind == models.AttachmentKindDocument {
		contentType = "application/pdf"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

func attachmentIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("attachmentId"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attachment id"))
		return 0, false
	}
	return id, true
}
