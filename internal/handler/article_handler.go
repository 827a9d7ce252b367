package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/measure"
	"github.com/magazzino-io/inventario-api/internal/models"
	"github.com/magazzino-io/inventario-api/internal/service"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

type articleService interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*service.ArticleDetail, error)
	Create(ctx context.Context, req service.SaveArticleRequest) (*models.Article, error)
	Update(ctx context.Context, id int64, req service.SaveArticleRequest, attachments []*models.Attachment) (*service.ArticleDetail, error)
	Delete(ctx context.Context, id int64) error
}

// ArticleHandler wires article HTTP endpoints to the service layer.
type ArticleHandler struct {
	service     articleService
	attachments *service.AttachmentService
}

// NewArticleHandler constructs the handler.
func NewArticleHandler(svc articleService, attachments *service.AttachmentService) *ArticleHandler {
	return &ArticleHandler{service: svc, attachments: attachments}
}

// filterFromQuery builds the search filter from the request query string.
// Date bounds are normalised the same way stored dates are, so a filter
// written as 13/02/2024 still matches.
func filterFromQuery(c *gin.Context) models.ArticleFilter {
	filter := models.ArticleFilter{
		Code:        strings.TrimSpace(c.Query("codice")),
		Description: strings.TrimSpace(c.Query("descrizione")),
		Customer:    strings.TrimSpace(c.Query("cliente")),
		Commessa:    strings.TrimSpace(c.Query("commessa")),
		OrderRef:    strings.TrimSpace(c.Query("ordine")),
		ArrivalNo:   strings.TrimSpace(c.Query("arrivo")),
		Status:      strings.TrimSpace(c.Query("stato")),
		Position:    strings.TrimSpace(c.Query("posizione")),
		VoucherNo:   strings.TrimSpace(c.Query("buono")),
	}
	if raw := strings.TrimSpace(c.Query("id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("arrivo_da")); raw != "" {
		filter.IntakeFrom = measure.NormalizeDate(raw)
	}
	if raw := strings.TrimSpace(c.Query("arrivo_a")); raw != "" {
		filter.IntakeTo = measure.NormalizeDate(raw)
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	return filter
}

// List returns articles matching the query filters.
func (h *ArticleHandler) List(c *gin.Context) {
	articles, pagination, err := h.service.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}
	response.JSON(c, http.StatusOK, articles, pagination)
}

// Get returns one article with its attachments.
func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create registers a new article from its field map.
func (h *ArticleHandler) Create(c *gin.Context) {
	var req service.SaveArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid article payload"))
		return
	}
	article, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, article)
}

// Update overwrites an article. A JSON body carries fields only; a
// multipart body may additionally attach files, which are stored in the
// same write unit as the field changes.
func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		h.updateMultipart(c, id)
		return
	}

	var req service.SaveArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid article payload"))
		return
	}
	detail, err := h.service.Update(c.Request.Context(), id, req, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

func (h *ArticleHandler) updateMultipart(c *gin.Context, id int64) {
	payload := c.PostForm("payload")
	var req service.SaveArticleRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload field"))
			return
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid multipart body"))
		return
	}

	var prepared []*models.Attachment
	discard := func() {
		for _, attachment := range prepared {
			h.attachments.Discard(attachment)
		}
	}
	for _, fileHeader := range form.File["attachments"] {
		src, err := fileHeader.Open()
		if err != nil {
			discard()
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
			return
		}
		attachment, err := h.attachments.Prepare(id, fileHeader.Filename, src, fileHeader.Size)
		src.Close() //nolint:errcheck
		if err != nil {
			discard()
			response.Error(c, err)
			return
		}
		prepared = append(prepared, attachment)
	}

	detail, err := h.service.Update(c.Request.Context(), id, req, prepared)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete removes an article, its attachment metadata and stored binaries.
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid article id"))
		return 0, false
	}
	return id, true
}
