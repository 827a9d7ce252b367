package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/storage"
)

type attachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)
	ListByArticle(ctx context.Context, articleID int64) ([]models.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

type binaryStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type articleFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Article, error)
}

type urlSigner interface {
	Generate(attachmentID, relPath string) (string, time.Time, error)
	Parse(token string) (attachmentID, relPath string, expiresAt time.Time, err error)
}

// SignedDownload is the issued download grant for one attachment.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttachmentService handles attachment lifecycle: binary storage, metadata
// persistence and signed download access.
type AttachmentService struct {
	repo     attachmentRepository
	articles articleFinder
	store    binaryStore
	signer   urlSigner
	maxSize  int64
	logger   *zap.Logger
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(repo attachmentRepository, articles articleFinder, store binaryStore, signer urlSigner, maxSize int64, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		repo:     repo,
		articles: articles,
		store:    store,
		signer:   signer,
		maxSize:  maxSize,
		logger:   logger,
	}
}

// Upload stores the binary and registers its metadata for an existing
// article. The binary is removed again when metadata persistence fails.
func (s *AttachmentService) Upload(ctx context.Context, articleID int64, originalName string, r io.Reader, size int64) (*models.Attachment, error) {
	if _, err := s.articles.FindByID(ctx, articleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}

	attachment, err := s.Prepare(articleID, originalName, r, size)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, attachment); err != nil {
		s.Discard(attachment)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register attachment")
	}
	return attachment, nil
}

// Prepare stores the binary and returns unpersisted metadata for it. The
// caller owns the metadata write (article save runs it inside the article
// transaction) and must Discard on failure.
func (s *AttachmentService) Prepare(articleID int64, originalName string, r io.Reader, size int64) (*models.Attachment, error) {
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxSize))
	}

	kind := models.KindForFilename(originalName)
	fileName := storageFileName(articleID, kind, originalName)

	if _, err := s.store.SaveStream(fileName, r); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store file")
	}

	return &models.Attachment{
		ArticleID:    articleID,
		Kind:         kind,
		FileName:     fileName,
		OriginalName: originalName,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// Discard removes a prepared binary whose metadata was never persisted.
func (s *AttachmentService) Discard(attachment *models.Attachment) {
	if attachment == nil {
		return
	}
	if err := s.store.Delete(attachment.FileName); err != nil {
		s.logger.Warn("attachment_binary_cleanup_failed",
			zap.String("file", attachment.FileName), zap.Error(err))
	}
}

// List returns the attachments of one article.
func (s *AttachmentService) List(ctx context.Context, articleID int64) ([]models.Attachment, error) {
	attachments, err := s.repo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return attachments, nil
}

// Remove deletes an attachment's metadata and then its binary. A binary
// that is already gone does not fail the removal.
func (s *AttachmentService) Remove(ctx context.Context, id int64) error {
	attachment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}

	if err := s.store.Delete(attachment.FileName); err != nil {
		s.logger.Warn("attachment_binary_delete_failed",
			zap.String("file", attachment.FileName), zap.Error(err))
	}
	return nil
}

// SignDownload issues a time-limited download token for an attachment.
func (s *AttachmentService) SignDownload(ctx context.Context, id int64) (*SignedDownload, error) {
	attachment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	token, expiresAt, err := s.signer.Generate(strconv.FormatInt(attachment.ID, 10), attachment.FileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// Download validates the token and opens the binary. The metadata path is
// authoritative; a tampered token or a file missing on disk both surface
// as not found.
func (s *AttachmentService) Download(ctx context.Context, id int64, token string) (*models.Attachment, *os.File, error) {
	attachment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}

	signedID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	if signedID != strconv.FormatInt(attachment.ID, 10) || relPath != attachment.FileName {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match attachment")
	}

	file, err := s.store.Open(attachment.FileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment file missing")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to open attachment")
	}
	return attachment, file, nil
}

// storageFileName builds a collision-resistant relative path. The article
// ID and a random token prefix the sanitised original name so repeated
// uploads of the same file never overwrite each other.
func storageFileName(articleID int64, kind models.AttachmentKind, originalName string) string {
	dir := storage.PhotosDir
	if kind == models.AttachmentKindDocument {
		dir = storage.DocumentsDir
	}
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return path.Join(dir, fmt.Sprintf("%d_%s_%s", articleID, token, sanitizeFileName(originalName)))
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "\\", "_", "/", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	name = replacer.Replace(name)
	if name == "" || name == "." {
		name = "file"
	}
	return name
}
