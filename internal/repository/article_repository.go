package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/magazzino-io/inventario-api/internal/models"
)

const articleColumns = `id, code, description, customer, commessa, order_ref, supplier, zone, position,
        arrival_no, delivery_no, voucher_no, protocol, status, notes, serial_no, weight,
        pieces, width_m, length_m, height_m, area_sqm, volume_cbm, intake_date, outbound_date,
        created_at, updated_at`

// ArticleRepository manages persistence for article records and owns the
// transactional write units that keep an article and its attachment
// metadata consistent.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository constructs an ArticleRepository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// List returns articles matching the provided filters, most recent first.
// Every filter is AND-combined; empty values are skipped.
func (r *ArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.ID != nil {
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)+1))
		args = append(args, *filter.ID)
	}
	contains := []struct {
		column string
		value  string
	}{
		{"code", filter.Code},
		{"description", filter.Description},
		{"customer", filter.Customer},
		{"commessa", filter.Commessa},
		{"order_ref", filter.OrderRef},
		{"arrival_no", filter.ArrivalNo},
		{"status", filter.Status},
		{"position", filter.Position},
		{"voucher_no", filter.VoucherNo},
	}
	for _, c := range contains {
		if c.value == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("LOWER(%s) LIKE $%d", c.column, len(args)+1))
		args = append(args, "%"+escapeLike(strings.ToLower(c.value))+"%")
	}
	if filter.IntakeFrom != "" {
		conditions = append(conditions, fmt.Sprintf("intake_date >= $%d", len(args)+1))
		args = append(args, filter.IntakeFrom)
	}
	if filter.IntakeTo != "" {
		conditions = append(conditions, fmt.Sprintf("intake_date <= $%d", len(args)+1))
		args = append(args, filter.IntakeTo)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM articles WHERE %s ORDER BY id DESC LIMIT %d OFFSET %d",
		articleColumns, where, size, offset)

	var articles []models.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM articles WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	return articles, total, nil
}

// escapeLike neutralizes LIKE metacharacters so a filter term containing
// "%" or "_" matches those characters literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// FindByID fetches a single article.
func (r *ArticleRepository) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = $1", articleColumns)
	var article models.Article
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		return nil, err
	}
	return &article, nil
}

// SelectByIDs fetches the articles whose IDs appear in the set. Unknown IDs
// are silently skipped; the result order is not significant.
func (r *ArticleRepository) SelectByIDs(ctx context.Context, ids []int64) ([]models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM articles WHERE id = ANY($1) ORDER BY id DESC", articleColumns)
	var articles []models.Article
	if err := r.db.SelectContext(ctx, &articles, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select articles by ids: %w", err)
	}
	return articles, nil
}

const insertArticleQuery = `INSERT INTO articles
        (code, description, customer, commessa, order_ref, supplier, zone, position,
         arrival_no, delivery_no, voucher_no, protocol, status, notes, serial_no, weight,
         pieces, width_m, length_m, height_m, area_sqm, volume_cbm, intake_date, outbound_date,
         created_at, updated_at)
        VALUES (:code, :description, :customer, :commessa, :order_ref, :supplier, :zone, :position,
         :arrival_no, :delivery_no, :voucher_no, :protocol, :status, :notes, :serial_no, :weight,
         :pieces, :width_m, :length_m, :height_m, :area_sqm, :volume_cbm, :intake_date, :outbound_date,
         :created_at, :updated_at)
        RETURNING id`

// Create inserts a new article record and assigns its ID.
func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	stmt, err := r.db.PrepareNamedContext(ctx, insertArticleQuery)
	if err != nil {
		return fmt.Errorf("prepare create article: %w", err)
	}
	defer stmt.Close() //nolint:errcheck
	if err := stmt.GetContext(ctx, &article.ID, article); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

const updateArticleQuery = `UPDATE articles SET
        code = :code, description = :description, customer = :customer, commessa = :commessa,
        order_ref = :order_ref, supplier = :supplier, zone = :zone, position = :position,
        arrival_no = :arrival_no, delivery_no = :delivery_no, voucher_no = :voucher_no,
        protocol = :protocol, status = :status, notes = :notes, serial_no = :serial_no,
        weight = :weight, pieces = :pieces, width_m = :width_m, length_m = :length_m,
        height_m = :height_m, area_sqm = :area_sqm, volume_cbm = :volume_cbm,
        intake_date = :intake_date, outbound_date = :outbound_date, updated_at = :updated_at
        WHERE id = :id`

const insertAttachmentQuery = `INSERT INTO attachments (article_id, kind, file_name, original_name, uploaded_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`

// Update replaces every editable field of an article and appends the given
// attachment metadata rows in the same transaction. Either everything
// commits or nothing does.
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article, attachments []*models.Attachment) error {
	article.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin article update tx: %w", err)
	}

	res, err := tx.NamedExecContext(ctx, updateArticleQuery, article)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("check article update rows: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return sql.ErrNoRows
	}

	for _, attachment := range attachments {
		attachment.ArticleID = article.ID
		if attachment.UploadedAt.IsZero() {
			attachment.UploadedAt = time.Now().UTC()
		}
		if err := tx.QueryRowxContext(ctx, insertAttachmentQuery,
			attachment.ArticleID, attachment.Kind, attachment.FileName, attachment.OriginalName, attachment.UploadedAt,
		).Scan(&attachment.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert attachment metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit article update tx: %w", err)
	}
	return nil
}

// Delete removes an article and all of its attachment metadata in one
// transaction, returning the removed attachments so the caller can clean
// up the binaries afterwards (best-effort, outside the transaction).
func (r *ArticleRepository) Delete(ctx context.Context, id int64) ([]models.Attachment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin article delete tx: %w", err)
	}

	var attachments []models.Attachment
	const selectAttachments = `SELECT id, article_id, kind, file_name, original_name, uploaded_at
        FROM attachments WHERE article_id = $1`
	if err := tx.SelectContext(ctx, &attachments, selectAttachments, id); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("list attachments for delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE article_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("delete attachments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("check article delete rows: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return nil, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit article delete tx: %w", err)
	}
	return attachments, nil
}
