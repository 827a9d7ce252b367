package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/export"
)

// Labels have fixed physical space; the list documents print full text.
const labelDescriptionLimit = 80

type articleSelector interface {
	SelectByIDs(ctx context.Context, ids []int64) ([]models.Article, error)
}

type labelExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderLabels(blocks []export.LabelBlock) ([]byte, error)
}

// ReportService renders printable documents for a selected set of articles.
type ReportService struct {
	repo   articleSelector
	pdf    labelExporter
	logger *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo articleSelector, pdf labelExporter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, pdf: pdf, logger: logger}
}

// ParseSelection turns raw ID tokens into a deduplicated int64 set.
// Malformed tokens are dropped, not reported: a sloppy selection should
// still print the valid part.
func ParseSelection(raw []string) []int64 {
	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, token := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// resolve loads the selected articles. Unknown IDs simply do not come
// back from storage; only a fully empty resolution is an error.
func (s *ReportService) resolve(ctx context.Context, rawIDs []string) ([]models.Article, error) {
	ids := ParseSelection(rawIDs)
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no valid article IDs selected")
	}
	articles, err := s.repo.SelectByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected articles")
	}
	if len(articles) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "none of the selected articles exist")
	}
	return articles, nil
}

// Picklist renders the warehouse picking document for the selection.
func (s *ReportService) Picklist(ctx context.Context, rawIDs []string) ([]byte, error) {
	articles, err := s.resolve(ctx, rawIDs)
	if err != nil {
		return nil, err
	}

	headers := []string{"Ordine", "Codice", "Descrizione", "Colli", "Arrivo"}
	rows := make([]map[string]string, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		rows = append(rows, map[string]string{
			"Ordine":      textValue(a.OrderRef),
			"Codice":      textValue(a.Code),
			"Descrizione": textValue(a.Description),
			"Colli":       strconv.Itoa(quantityOf(a)),
			"Arrivo":      textValue(a.ArrivalNo),
		})
	}

	payload, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, "Lista di prelievo")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render picklist")
	}
	return payload, nil
}

// Transport renders the shipping document. Rows are grouped by customer,
// articles without one collected at the end under the shared bucket.
func (s *ReportService) Transport(ctx context.Context, rawIDs []string) ([]byte, error) {
	articles, err := s.resolve(ctx, rawIDs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return transportGroup(&articles[i]) < transportGroup(&articles[j])
	})

	headers := []string{"Cliente", "ID", "Codice", "Descrizione", "Colli", "Peso", "Commessa", "Ordine"}
	rows := make([]map[string]string, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		customer := textValue(a.Customer)
		if customer == "" {
			customer = NoCustomerBucket
		}
		rows = append(rows, map[string]string{
			"Cliente":     customer,
			"ID":          strconv.FormatInt(a.ID, 10),
			"Codice":      textValue(a.Code),
			"Descrizione": textValue(a.Description),
			"Colli":       strconv.Itoa(quantityOf(a)),
			"Peso":        textValue(a.Weight),
			"Commessa":    textValue(a.Commessa),
			"Ordine":      textValue(a.OrderRef),
		})
	}

	payload, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, "Documento di trasporto")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transport document")
	}
	return payload, nil
}

// Labels renders one printable label per selected article.
func (s *ReportService) Labels(ctx context.Context, rawIDs []string) ([]byte, error) {
	articles, err := s.resolve(ctx, rawIDs)
	if err != nil {
		return nil, err
	}

	blocks := make([]export.LabelBlock, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		blocks = append(blocks, export.LabelBlock{Lines: []export.LabelLine{
			{Caption: "Cliente", Value: textValue(a.Customer)},
			{Caption: "Commessa", Value: textValue(a.Commessa)},
			{Caption: "Ordine", Value: textValue(a.OrderRef)},
			{Caption: "Arrivo", Value: textValue(a.ArrivalNo)},
			{Caption: "Codice", Value: textValue(a.Code)},
			{Caption: "Descrizione", Value: truncate(textValue(a.Description), labelDescriptionLimit)},
			{Caption: "Colli", Value: strconv.Itoa(quantityOf(a))},
			{Caption: "Peso", Value: textValue(a.Weight)},
		}})
	}

	payload, err := s.pdf.RenderLabels(blocks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render labels")
	}
	return payload, nil
}

// transportGroup sorts named customers alphabetically and pushes the
// no-customer bucket to the end.
func transportGroup(a *models.Article) string {
	if a.Customer == nil || *a.Customer == "" {
		return "\uffff"
	}
	return strings.ToLower(*a.Customer)
}

// quantityOf never reports zero packages: historic rows may predate the
// intake-side default, so the fallback is applied again at print time.
func quantityOf(a *models.Article) int {
	if a.Pieces < 1 {
		return 1
	}
	return a.Pieces
}

func textValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
