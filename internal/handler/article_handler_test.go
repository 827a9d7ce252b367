package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazzino-io/inventario-api/internal/models"
	"github.com/magazzino-io/inventario-api/internal/service"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

type articleServiceMock struct {
	listFilter models.ArticleFilter
	listResp   []models.Article
	getResp    *service.ArticleDetail
	getErr     error
	created    *service.SaveArticleRequest
	deleteErr  error
}

func (m *articleServiceMock) List(_ context.Context, filter models.ArticleFilter) ([]models.Article, *models.Pagination, error) {
	m.listFilter = filter
	return m.listResp, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(m.listResp)}, nil
}

func (m *articleServiceMock) Get(_ context.Context, _ int64) (*service.ArticleDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *articleServiceMock) Create(_ context.Context, req service.SaveArticleRequest) (*models.Article, error) {
	m.created = &req
	return &models.Article{ID: 1}, nil
}

func (m *articleServiceMock) Update(_ context.Context, id int64, _ service.SaveArticleRequest, _ []*models.Attachment) (*service.ArticleDetail, error) {
	return &service.ArticleDetail{Article: models.Article{ID: id}}, nil
}

func (m *articleServiceMock) Delete(_ context.Context, _ int64) error {
	return m.deleteErr
}

func TestArticleHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &articleServiceMock{}
	h := NewArticleHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/articles?cliente=Rossi&arrivo_da=13/02/2024&stato=giacenza&page=2&page_size=25", nil)
	c.Request = req

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rossi", mock.listFilter.Customer)
	assert.Equal(t, "2024-02-13", mock.listFilter.IntakeFrom)
	assert.Equal(t, "giacenza", mock.listFilter.Status)
	assert.Equal(t, 2, mock.listFilter.Page)
	assert.Equal(t, 25, mock.listFilter.PageSize)
}

func TestArticleHandlerListEmptyResultIsOKWithPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewArticleHandler(&articleServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/articles", nil)
	c.Request = req

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 0, envelope.Pagination.TotalCount)
	assert.Nil(t, envelope.Error)
}

func TestArticleHandlerCreatePassesFieldMap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &articleServiceMock{}
	h := NewArticleHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SaveArticleRequest{Fields: map[string]string{"codice": "ART-1", "colli": "2"}})
	req, _ := http.NewRequest(http.MethodPost, "/articles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.created)
	assert.Equal(t, "ART-1", mock.created.Fields["codice"])
}

func TestArticleHandlerGetMapsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &articleServiceMock{getErr: appErrors.ErrNotFound}
	h := NewArticleHandler(mock, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/articles/404", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "404"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticleHandlerRejectsMalformedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewArticleHandler(&articleServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/articles/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Delete(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
