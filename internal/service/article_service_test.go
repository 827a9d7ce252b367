package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
)

type articleRepoMock struct {
	articles   map[int64]*models.Article
	created    []*models.Article
	updated    []*models.Article
	updatedAtt [][]*models.Attachment
	deleted    []int64
	listCalls  int
	listResult []models.Article
	updateErr  error
	deleteAtt  []models.Attachment
}

func (m *articleRepoMock) List(_ context.Context, _ models.ArticleFilter) ([]models.Article, int, error) {
	m.listCalls++
	return m.listResult, len(m.listResult), nil
}

func (m *articleRepoMock) FindByID(_ context.Context, id int64) (*models.Article, error) {
	if a, ok := m.articles[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *articleRepoMock) Create(_ context.Context, article *models.Article) error {
	article.ID = int64(len(m.created) + 1)
	m.created = append(m.created, article)
	if m.articles == nil {
		m.articles = map[int64]*models.Article{}
	}
	m.articles[article.ID] = article
	return nil
}

func (m *articleRepoMock) Update(_ context.Context, article *models.Article, attachments []*models.Attachment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.articles[article.ID]; !ok {
		return sql.ErrNoRows
	}
	m.updated = append(m.updated, article)
	m.updatedAtt = append(m.updatedAtt, attachments)
	m.articles[article.ID] = article
	return nil
}

func (m *articleRepoMock) Delete(_ context.Context, id int64) ([]models.Attachment, error) {
	if _, ok := m.articles[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.articles, id)
	m.deleted = append(m.deleted, id)
	return m.deleteAtt, nil
}

type attachmentListerMock struct {
	byArticle map[int64][]models.Attachment
}

func (m *attachmentListerMock) ListByArticle(_ context.Context, articleID int64) ([]models.Attachment, error) {
	return m.byArticle[articleID], nil
}

type binaryRemoverMock struct {
	removed []string
	failOn  string
}

func (m *binaryRemoverMock) Delete(filename string) error {
	m.removed = append(m.removed, filename)
	if filename == m.failOn {
		return errors.New("file locked")
	}
	return nil
}

type cacheMock struct {
	entries         map[string][]byte
	invalidations   int
	invalidatedWith string
}

func (m *cacheMock) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *cacheMock) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *cacheMock) DeleteByPattern(_ context.Context, pattern string) error {
	m.invalidations++
	m.invalidatedWith = pattern
	m.entries = map[string][]byte{}
	return nil
}

func newArticleService(repo *articleRepoMock, remover *binaryRemoverMock, cache *cacheMock) *ArticleService {
	lister := &attachmentListerMock{byArticle: map[int64][]models.Attachment{}}
	var c listCache
	if cache != nil {
		c = cache
	}
	return NewArticleService(repo, lister, remover, c, nil, time.Minute, nil)
}

func TestArticleServiceCreateComputesDerivedMeasures(t *testing.T) {
	repo := &articleRepoMock{}
	svc := newArticleService(repo, &binaryRemoverMock{}, nil)

	created, err := svc.Create(context.Background(), SaveArticleRequest{Fields: map[string]string{
		"codice":    "ART-1",
		"lunghezza": "2",
		"larghezza": "3",
		"altezza":   "1,5",
	}})
	require.NoError(t, err)

	assert.Equal(t, 6.0, created.Area)
	assert.Equal(t, 9.0, created.Volume)
	assert.Equal(t, 1, created.Pieces)
	require.NotNil(t, created.Code)
	assert.Equal(t, "ART-1", *created.Code)
}

func TestArticleServiceCreateTreatsBlankAsNull(t *testing.T) {
	repo := &articleRepoMock{}
	svc := newArticleService(repo, &binaryRemoverMock{}, nil)

	created, err := svc.Create(context.Background(), SaveArticleRequest{Fields: map[string]string{
		"cliente": "   ",
		"note":    " attenzione ",
	}})
	require.NoError(t, err)

	assert.Nil(t, created.Customer)
	require.NotNil(t, created.Notes)
	assert.Equal(t, "attenzione", *created.Notes)
}

func TestArticleServiceCreateRejectsUnknownField(t *testing.T) {
	svc := newArticleService(&articleRepoMock{}, &binaryRemoverMock{}, nil)

	_, err := svc.Create(context.Background(), SaveArticleRequest{Fields: map[string]string{"colore": "rosso"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestArticleServiceUpdateIsFullOverwrite(t *testing.T) {
	customer := "Rossi"
	repo := &articleRepoMock{articles: map[int64]*models.Article{
		5: {ID: 5, Customer: &customer, Pieces: 3},
	}}
	svc := newArticleService(repo, &binaryRemoverMock{}, nil)

	detail, err := svc.Update(context.Background(), 5, SaveArticleRequest{Fields: map[string]string{
		"codice": "ART-5",
	}}, nil)
	require.NoError(t, err)

	assert.Nil(t, detail.Customer)
	assert.Equal(t, 1, detail.Pieces)
}

func TestArticleServiceUpdateCleansUpAttachmentBinariesOnFailure(t *testing.T) {
	repo := &articleRepoMock{
		articles:  map[int64]*models.Article{5: {ID: 5}},
		updateErr: errors.New("connection reset"),
	}
	remover := &binaryRemoverMock{}
	svc := newArticleService(repo, remover, nil)

	attachment := &models.Attachment{FileName: "photos/5_ab_pallet.jpg"}
	_, err := svc.Update(context.Background(), 5, SaveArticleRequest{}, []*models.Attachment{attachment})
	require.Error(t, err)
	assert.Equal(t, []string{"photos/5_ab_pallet.jpg"}, remover.removed)
}

func TestArticleServiceUpdateUnknownIDIsNotFound(t *testing.T) {
	svc := newArticleService(&articleRepoMock{}, &binaryRemoverMock{}, nil)

	_, err := svc.Update(context.Background(), 404, SaveArticleRequest{}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestArticleServiceDeleteRemovesBinariesBestEffort(t *testing.T) {
	repo := &articleRepoMock{
		articles: map[int64]*models.Article{9: {ID: 9}},
		deleteAtt: []models.Attachment{
			{FileName: "photos/9_aa_a.jpg"},
			{FileName: "documents/9_bb_b.pdf"},
		},
	}
	remover := &binaryRemoverMock{failOn: "photos/9_aa_a.jpg"}
	svc := newArticleService(repo, remover, nil)

	err := svc.Delete(context.Background(), 9)
	require.NoError(t, err)
	assert.Len(t, remover.removed, 2)
}

func TestArticleServiceListServesRepeatQueriesFromCache(t *testing.T) {
	repo := &articleRepoMock{listResult: []models.Article{{ID: 1}}}
	cache := &cacheMock{}
	svc := newArticleService(repo, &binaryRemoverMock{}, cache)

	filter := models.ArticleFilter{Customer: "Rossi"}
	_, _, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	articles, pagination, err := svc.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
	assert.Len(t, articles, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestArticleServiceWritesInvalidateListCache(t *testing.T) {
	repo := &articleRepoMock{}
	cache := &cacheMock{}
	svc := newArticleService(repo, &binaryRemoverMock{}, cache)

	_, err := svc.Create(context.Background(), SaveArticleRequest{Fields: map[string]string{"codice": "A"}})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.invalidations)
	assert.Equal(t, articleListCachePrefix+"*", cache.invalidatedWith)
}
