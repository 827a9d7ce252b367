package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/magazzino-io/inventario-api/internal/fields"
	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/export"
)

// NoCustomerBucket names the worksheet that collects articles without a
// customer in per-customer exports.
const NoCustomerBucket = "(senza cliente)"

const exportPageSize = 500

type datasetExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

type workbookExporter interface {
	Render(data export.Dataset, sheetName string) ([]byte, error)
	RenderWorkbook(sheets []export.Sheet) ([]byte, error)
}

// ExportService renders filtered article sets into downloadable files.
type ExportService struct {
	repo   articleRepository
	csv    datasetExporter
	xlsx   workbookExporter
	logger *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(repo articleRepository, csv datasetExporter, xlsx workbookExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, csv: csv, xlsx: xlsx, logger: logger}
}

// collectAll drains every page matching the filter. Exports ignore the
// caller's pagination: a filtered export always covers the full result set.
func (s *ExportService) collectAll(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error) {
	filter.PageSize = exportPageSize
	var all []models.Article
	for page := 1; ; page++ {
		filter.Page = page
		articles, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect articles for export")
		}
		all = append(all, articles...)
		if len(all) >= total || len(articles) == 0 {
			return all, nil
		}
	}
}

// BuildDataset projects articles onto the canonical column set. Headers
// use the default import profile's first alias per field, so exporting and
// re-importing a file through the default profile round-trips.
func BuildDataset(articles []models.Article) export.Dataset {
	descriptors := fields.All()
	headers := make([]string, len(descriptors))
	for i, d := range descriptors {
		headers[i] = ExportHeaderFor(d.Name)
	}
	rows := make([]map[string]string, 0, len(articles))
	for i := range articles {
		row := make(map[string]string, len(descriptors))
		for j, d := range descriptors {
			row[headers[j]] = d.Get(&articles[i])
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// ExportXLSX renders the filtered articles as a single-sheet workbook.
func (s *ExportService) ExportXLSX(ctx context.Context, filter models.ArticleFilter) ([]byte, error) {
	articles, err := s.collectAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.xlsx.Render(BuildDataset(articles), "Articoli")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render xlsx export")
	}
	return payload, nil
}

// ExportCSV renders the filtered articles as CSV.
func (s *ExportService) ExportCSV(ctx context.Context, filter models.ArticleFilter) ([]byte, error) {
	articles, err := s.collectAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(BuildDataset(articles))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, nil
}

// ExportXLSXByCustomer renders one worksheet per customer, alphabetically,
// with articles lacking a customer grouped under a dedicated final sheet.
func (s *ExportService) ExportXLSXByCustomer(ctx context.Context, filter models.ArticleFilter) ([]byte, error) {
	articles, err := s.collectAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.Article)
	for _, article := range articles {
		key := NoCustomerBucket
		if article.Customer != nil && *article.Customer != "" {
			key = *article.Customer
		}
		groups[key] = append(groups[key], article)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		if name == NoCustomerBucket {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if _, ok := groups[NoCustomerBucket]; ok {
		names = append(names, NoCustomerBucket)
	}
	if len(names) == 0 {
		names = []string{NoCustomerBucket}
		groups[NoCustomerBucket] = nil
	}

	sheets := make([]export.Sheet, 0, len(names))
	for _, name := range names {
		sheets = append(sheets, export.Sheet{Name: name, Data: BuildDataset(groups[name])})
	}

	payload, err := s.xlsx.RenderWorkbook(sheets)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render grouped export")
	}
	return payload, nil
}
