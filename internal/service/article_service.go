package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/magazzino-io/inventario-api/internal/fields"
	"github.com/magazzino-io/inventario-api/internal/measure"
	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
)

type articleRepository interface {
	List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error)
	FindByID(ctx context.Context, id int64) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article, attachments []*models.Attachment) error
	Delete(ctx context.Context, id int64) ([]models.Attachment, error)
}

type attachmentLister interface {
	ListByArticle(ctx context.Context, articleID int64) ([]models.Attachment, error)
}

type binaryRemover interface {
	Delete(filename string) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SaveArticleRequest carries one article's full field set in boundary form.
// Keys are canonical field names; values are raw text as entered. Saving is
// a full overwrite: any canonical field absent from the map is cleared.
type SaveArticleRequest struct {
	Fields map[string]string `json:"fields"`
}

// ArticleDetail bundles an article with its attachment metadata.
type ArticleDetail struct {
	models.Article
	Attachments []models.Attachment `json:"attachments"`
}

const articleListCachePrefix = "articles:list:"

// ArticleService handles article use-cases.
type ArticleService struct {
	repo        articleRepository
	attachments attachmentLister
	binaries    binaryRemover
	cache       listCache
	calc        *measure.Calculator
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewArticleService constructs the article service. Cache may be nil.
func NewArticleService(repo articleRepository, attachments attachmentLister, binaries binaryRemover, cache listCache, calc *measure.Calculator, cacheTTL time.Duration, logger *zap.Logger) *ArticleService {
	if calc == nil {
		calc = measure.NewCalculator(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &ArticleService{
		repo:        repo,
		attachments: attachments,
		binaries:    binaries,
		cache:       cache,
		calc:        calc,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

type cachedArticleList struct {
	Articles []models.Article `json:"articles"`
	Total    int              `json:"total"`
}

// List returns articles and pagination metadata, serving repeat queries
// from cache until the next write invalidates it.
func (s *ArticleService) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}

	key := listCacheKey(filter)
	if s.cache != nil {
		var cached cachedArticleList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Articles, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		}
	}

	articles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list articles")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedArticleList{Articles: articles, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("article_list_cache_set_failed", zap.Error(err))
		}
	}
	return articles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one article with its attachments.
func (s *ArticleService) Get(ctx context.Context, id int64) (*ArticleDetail, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	attachments, err := s.attachments.ListByArticle(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return &ArticleDetail{Article: *article, Attachments: attachments}, nil
}

// Create registers a new article from its boundary field set. Derived
// measurements are always recomputed here, never taken from the caller.
func (s *ArticleService) Create(ctx context.Context, req SaveArticleRequest) (*models.Article, error) {
	article := &models.Article{}
	if err := s.applyFields(article, req.Fields); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create article")
	}
	s.invalidateListCache(ctx)
	return article, nil
}

// Update replaces every editable field of the article and appends the
// prepared attachment batch in the same storage transaction. Binaries for
// the batch must already be stored; they are discarded if the transaction
// fails.
func (s *ArticleService) Update(ctx context.Context, id int64, req SaveArticleRequest, attachments []*models.Attachment) (*ArticleDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}

	article := &models.Article{ID: id}
	if err := s.applyFields(article, req.Fields); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, article, attachments); err != nil {
		for _, attachment := range attachments {
			if removeErr := s.binaries.Delete(attachment.FileName); removeErr != nil {
				s.logger.Warn("attachment_binary_cleanup_failed",
					zap.String("file", attachment.FileName), zap.Error(removeErr))
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update article")
	}
	s.invalidateListCache(ctx)

	return s.Get(ctx, id)
}

// Delete removes an article, its attachment metadata (same transaction)
// and finally the stored binaries. Binary removal is best-effort: a
// missing or locked file is logged, never an error.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	attachments, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete article")
	}
	for _, attachment := range attachments {
		if err := s.binaries.Delete(attachment.FileName); err != nil {
			s.logger.Warn("attachment_binary_delete_failed",
				zap.String("file", attachment.FileName), zap.Error(err))
		}
	}
	s.invalidateListCache(ctx)
	return nil
}

// applyFields writes the boundary field set onto the article through the
// descriptor table (full overwrite) and recomputes area and volume from
// the raw dimension tokens.
func (s *ArticleService) applyFields(article *models.Article, raw map[string]string) error {
	for name := range raw {
		if _, ok := fields.ByName(name); !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field %q", name))
		}
	}
	for _, descriptor := range fields.All() {
		if descriptor.Set == nil {
			continue
		}
		descriptor.Set(article, raw[descriptor.Name])
	}
	article.Area, article.Volume = s.calc.Compute(raw["lunghezza"], raw["larghezza"], raw["altezza"], raw["colli"])
	return nil
}

func (s *ArticleService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, articleListCachePrefix+"*"); err != nil {
		s.logger.Warn("article_list_cache_invalidate_failed", zap.Error(err))
	}
}

func listCacheKey(filter models.ArticleFilter) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%#v", filter)))
	return articleListCachePrefix + hex.EncodeToString(sum[:8])
}
