package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/export"
)

type selectorMock struct {
	articles map[int64]models.Article
	asked    []int64
}

func (m *selectorMock) SelectByIDs(_ context.Context, ids []int64) ([]models.Article, error) {
	m.asked = ids
	var out []models.Article
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type pdfMock struct {
	dataset export.Dataset
	title   string
	blocks  []export.LabelBlock
}

func (m *pdfMock) Render(data export.Dataset, title string) ([]byte, error) {
	m.dataset = data
	m.title = title
	return []byte("%PDF"), nil
}

func (m *pdfMock) RenderLabels(blocks []export.LabelBlock) ([]byte, error) {
	m.blocks = blocks
	return []byte("%PDF"), nil
}

func TestParseSelectionDropsDuplicatesAndGarbage(t *testing.T) {
	ids := ParseSelection([]string{"3", " 7 ", "3", "abc", "", "-1", "0", "12"})
	assert.Equal(t, []int64{3, 7, 12}, ids)
}

func TestReportServicePicklistCarriesOrderAndArrival(t *testing.T) {
	long := strings.Repeat("x", 95)
	selector := &selectorMock{articles: map[int64]models.Article{
		1: {ID: 1, Code: strPtr("ART-1"), Description: &long, OrderRef: strPtr("ORD-7"), ArrivalNo: strPtr("ARR-3")},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Picklist(context.Background(), []string{"1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ordine", "Codice", "Descrizione", "Colli", "Arrivo"}, pdf.dataset.Headers)
	require.Len(t, pdf.dataset.Rows, 1)
	assert.Equal(t, "ORD-7", pdf.dataset.Rows[0]["Ordine"])
	assert.Equal(t, "ARR-3", pdf.dataset.Rows[0]["Arrivo"])
	assert.Equal(t, long, pdf.dataset.Rows[0]["Descrizione"])
	assert.Equal(t, "Lista di prelievo", pdf.title)
}

func TestReportServiceTransportCarriesIDJobAndOrder(t *testing.T) {
	long := strings.Repeat("y", 95)
	selector := &selectorMock{articles: map[int64]models.Article{
		5: {ID: 5, Code: strPtr("ART-5"), Description: &long, Commessa: strPtr("COM-2"),
			OrderRef: strPtr("ORD-9"), Weight: strPtr("120"), Pieces: 3},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Transport(context.Background(), []string{"5"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Cliente", "ID", "Codice", "Descrizione", "Colli", "Peso", "Commessa", "Ordine"}, pdf.dataset.Headers)
	require.Len(t, pdf.dataset.Rows, 1)
	row := pdf.dataset.Rows[0]
	assert.Equal(t, "5", row["ID"])
	assert.Equal(t, "COM-2", row["Commessa"])
	assert.Equal(t, "ORD-9", row["Ordine"])
	assert.Equal(t, "120", row["Peso"])
	assert.Equal(t, long, row["Descrizione"])
}

func TestReportServicePicklistQuantityNeverZero(t *testing.T) {
	selector := &selectorMock{articles: map[int64]models.Article{
		1: {ID: 1, Pieces: 0},
		2: {ID: 2, Pieces: 6},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Picklist(context.Background(), []string{"1", "2"})
	require.NoError(t, err)

	quantities := []string{pdf.dataset.Rows[0]["Colli"], pdf.dataset.Rows[1]["Colli"]}
	assert.ElementsMatch(t, []string{"1", "6"}, quantities)
}

func TestReportServiceTransportGroupsNoCustomerLast(t *testing.T) {
	selector := &selectorMock{articles: map[int64]models.Article{
		1: {ID: 1, Customer: strPtr("Rossi")},
		2: {ID: 2},
		3: {ID: 3, Customer: strPtr("Bianchi")},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Transport(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)

	require.Len(t, pdf.dataset.Rows, 3)
	assert.Equal(t, "Bianchi", pdf.dataset.Rows[0]["Cliente"])
	assert.Equal(t, "Rossi", pdf.dataset.Rows[1]["Cliente"])
	assert.Equal(t, NoCustomerBucket, pdf.dataset.Rows[2]["Cliente"])
}

func TestReportServiceLabelsCarryPairsAndTruncate(t *testing.T) {
	long := strings.Repeat("z", 95)
	selector := &selectorMock{articles: map[int64]models.Article{
		1: {ID: 1, Code: strPtr("ART-1"), Description: &long, Commessa: strPtr("COM-1"),
			OrderRef: strPtr("ORD-1"), ArrivalNo: strPtr("ARR-1"), Weight: strPtr("40"), Pieces: 2},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Labels(context.Background(), []string{"1"})
	require.NoError(t, err)

	require.Len(t, pdf.blocks, 1)
	lines := map[string]string{}
	for _, line := range pdf.blocks[0].Lines {
		lines[line.Caption] = line.Value
	}
	assert.Equal(t, "ORD-1", lines["Ordine"])
	assert.Equal(t, "ARR-1", lines["Arrivo"])
	assert.Equal(t, "2", lines["Colli"])
	assert.Equal(t, "40", lines["Peso"])
	assert.Len(t, lines["Descrizione"], labelDescriptionLimit)
}

func TestReportServiceLabelsOneBlockPerArticle(t *testing.T) {
	selector := &selectorMock{articles: map[int64]models.Article{
		1: {ID: 1, Code: strPtr("ART-1")},
		2: {ID: 2, Code: strPtr("ART-2")},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Labels(context.Background(), []string{"1", "2", "2"})
	require.NoError(t, err)
	assert.Len(t, pdf.blocks, 2)
}

func TestReportServiceUnknownIDsAreSkipped(t *testing.T) {
	selector := &selectorMock{articles: map[int64]models.Article{
		1: {ID: 1, Code: strPtr("ART-1")},
	}}
	pdf := &pdfMock{}
	svc := NewReportService(selector, pdf, nil)

	_, err := svc.Picklist(context.Background(), []string{"1", "999"})
	require.NoError(t, err)
	assert.Len(t, pdf.dataset.Rows, 1)
}

func TestReportServiceEmptySelectionIsValidationError(t *testing.T) {
	svc := NewReportService(&selectorMock{}, &pdfMock{}, nil)

	_, err := svc.Picklist(context.Background(), []string{"abc", ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceAllUnknownIsNotFound(t *testing.T) {
	svc := NewReportService(&selectorMock{}, &pdfMock{}, nil)

	_, err := svc.Labels(context.Background(), []string{"404"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
