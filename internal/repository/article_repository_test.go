package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazzino-io/inventario-api/internal/models"
)

var articleTestColumns = []string{
	"id", "code", "description", "customer", "commessa", "order_ref", "supplier", "zone", "position",
	"arrival_no", "delivery_no", "voucher_no", "protocol", "status", "notes", "serial_no", "weight",
	"pieces", "width_m", "length_m", "height_m", "area_sqm", "volume_cbm", "intake_date", "outbound_date",
	"created_at", "updated_at",
}

func newArticleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func addArticleRow(rows *sqlmock.Rows, id int64, customer string) {
	rows.AddRow(id, "ART-1", "Pannello", customer, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil, nil, nil,
		1, 1.0, 2.0, 0.5, 2.0, 1.0, "2024-02-13", nil,
		time.Now(), time.Now())
}

func TestArticleRepositoryListDefaultOrder(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	rows := sqlmock.NewRows(articleTestColumns)
	addArticleRow(rows, 2, "Rossi")
	addArticleRow(rows, 1, "Bianchi")

	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE 1=1 ORDER BY id DESC LIMIT 50 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	articles, total, err := repo.List(context.Background(), models.ArticleFilter{})
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	rows := sqlmock.NewRows(articleTestColumns)
	addArticleRow(rows, 7, "Rossi")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND LOWER(customer) LIKE $1 AND intake_date >= $2 AND intake_date <= $3 ORDER BY id DESC")).
		WithArgs("%rossi%", "2024-01-01", "2024-12-31").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles")).
		WithArgs("%rossi%", "2024-01-01", "2024-12-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	articles, total, err := repo.List(context.Background(), models.ArticleFilter{
		Customer:   "Rossi",
		IntakeFrom: "2024-01-01",
		IntakeTo:   "2024-12-31",
	})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryListEscapesLikeMetacharacters(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE 1=1 AND LOWER(description) LIKE $1")).
		WithArgs(`%sconto 50\% su\_misura%`).
		WillReturnRows(sqlmock.NewRows(articleTestColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(`%sconto 50\% su\_misura%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ArticleFilter{Description: "Sconto 50% su_misura"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryListNoMatchesIsEmptyNotError(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE 1=1 AND LOWER(status) LIKE $1")).
		WithArgs("%spedito%").
		WillReturnRows(sqlmock.NewRows(articleTestColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%spedito%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	articles, total, err := repo.List(context.Background(), models.ArticleFilter{Status: "spedito"})
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectPrepare("INSERT INTO articles").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	article := &models.Article{Pieces: 1}
	err := repo.Create(context.Background(), article)
	require.NoError(t, err)
	assert.Equal(t, int64(11), article.ID)
	assert.False(t, article.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryUpdateWithAttachmentsCommitsAsOneUnit(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO attachments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	attachment := &models.Attachment{Kind: models.AttachmentKindPhoto, FileName: "photos/9_ab_pallet.jpg", OriginalName: "pallet.jpg"}
	err := repo.Update(context.Background(), &models.Article{ID: 9, Pieces: 1}, []*models.Attachment{attachment})
	require.NoError(t, err)
	assert.Equal(t, int64(5), attachment.ID)
	assert.Equal(t, int64(9), attachment.ArticleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryUpdateRollsBackWhenAttachmentInsertFails(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO attachments").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	attachment := &models.Attachment{Kind: models.AttachmentKindDocument, FileName: "documents/9_ab_ddt.pdf"}
	err := repo.Update(context.Background(), &models.Article{ID: 9, Pieces: 1}, []*models.Attachment{attachment})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryUpdateUnknownIDIsNoRows(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Article{ID: 404, Pieces: 1}, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryDeleteCascadesAttachments(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	attachmentRows := sqlmock.NewRows([]string{"id", "article_id", "kind", "file_name", "original_name", "uploaded_at"}).
		AddRow(3, 9, "photo", "photos/9_ab_pallet.jpg", "pallet.jpg", time.Now()).
		AddRow(4, 9, "document", "documents/9_cd_ddt.pdf", "ddt.pdf", time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM attachments WHERE article_id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(attachmentRows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attachments WHERE article_id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM articles WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	attachments, err := repo.Delete(context.Background(), 9)
	require.NoError(t, err)
	assert.Len(t, attachments, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepositoryDeleteUnknownIDIsNoRows(t *testing.T) {
	db, mock, cleanup := newArticleMock(t)
	defer cleanup()
	repo := NewArticleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM attachments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "article_id", "kind", "file_name", "original_name", "uploaded_at"}))
	mock.ExpectExec("DELETE FROM attachments").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM articles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
