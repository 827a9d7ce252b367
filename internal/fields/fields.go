// Package fields declares the canonical article field set as an explicit
// descriptor table. Import mapping, spreadsheet export and report
// projections all address article values by canonical name through this
// table instead of runtime reflection, so a missing accessor is a compile
// error rather than a silent skip.
package fields

import (
	"strconv"
	"strings"

	"github.com/magazzino-io/inventario-api/internal/measure"
	"github.com/magazzino-io/inventario-api/internal/models"
)

// Descriptor binds a canonical field name to its typed accessor pair.
// Set is nil for derived fields (mq, mc): those are exported but always
// recomputed on write, never accepted from external input.
type Descriptor struct {
	Name string
	Get  func(a *models.Article) string
	Set  func(a *models.Article, raw string)
}

func textField(name string, get func(a *models.Article) **string) Descriptor {
	return Descriptor{
		Name: name,
		Get: func(a *models.Article) string {
			if p := *get(a); p != nil {
				return *p
			}
			return ""
		},
		Set: func(a *models.Article, raw string) {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				*get(a) = nil
				return
			}
			*get(a) = &trimmed
		},
	}
}

func dateField(name string, get func(a *models.Article) **string) Descriptor {
	d := textField(name, get)
	inner := d.Set
	d.Set = func(a *models.Article, raw string) {
		inner(a, measure.NormalizeDate(raw))
	}
	return d
}

func dimensionField(name string, get func(a *models.Article) *float64) Descriptor {
	return Descriptor{
		Name: name,
		Get: func(a *models.Article) string {
			v := *get(a)
			if v == 0 {
				return ""
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		Set: func(a *models.Article, raw string) {
			v, ok := measure.ParseNumber(raw)
			if !ok {
				v = 0
			}
			*get(a) = v
		},
	}
}

func derivedField(name string, get func(a *models.Article) float64) Descriptor {
	return Descriptor{
		Name: name,
		Get: func(a *models.Article) string {
			return strconv.FormatFloat(get(a), 'f', -1, 64)
		},
	}
}

var descriptors = []Descriptor{
	textField("codice", func(a *models.Article) **string { return &a.Code }),
	textField("descrizione", func(a *models.Article) **string { return &a.Description }),
	textField("cliente", func(a *models.Article) **string { return &a.Customer }),
	textField("commessa", func(a *models.Article) **string { return &a.Commessa }),
	textField("ordine", func(a *models.Article) **string { return &a.OrderRef }),
	textField("fornitore", func(a *models.Article) **string { return &a.Supplier }),
	textField("magazzino", func(a *models.Article) **string { return &a.Zone }),
	textField("posizione", func(a *models.Article) **string { return &a.Position }),
	textField("arrivo", func(a *models.Article) **string { return &a.ArrivalNo }),
	textField("consegna", func(a *models.Article) **string { return &a.DeliveryNo }),
	textField("buono", func(a *models.Article) **string { return &a.VoucherNo }),
	textField("protocollo", func(a *models.Article) **string { return &a.Protocol }),
	textField("stato", func(a *models.Article) **string { return &a.Status }),
	textField("note", func(a *models.Article) **string { return &a.Notes }),
	textField("seriale", func(a *models.Article) **string { return &a.SerialNo }),
	textField("peso", func(a *models.Article) **string { return &a.Weight }),
	{
		Name: "colli",
		Get: func(a *models.Article) string {
			if a.Pieces == 0 {
				return ""
			}
			return strconv.Itoa(a.Pieces)
		},
		Set: func(a *models.Article, raw string) {
			a.Pieces = measure.PiecesOrDefault(raw)
		},
	},
	dimensionField("larghezza", func(a *models.Article) *float64 { return &a.Width }),
	dimensionField("lunghezza", func(a *models.Article) *float64 { return &a.Length }),
	dimensionField("altezza", func(a *models.Article) *float64 { return &a.Height }),
	derivedField("mq", func(a *models.Article) float64 { return a.Area }),
	derivedField("mc", func(a *models.Article) float64 { return a.Volume }),
	dateField("data_arrivo", func(a *models.Article) **string { return &a.IntakeDate }),
	dateField("data_uscita", func(a *models.Article) **string { return &a.OutboundDate }),
}

var byName = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Name] = d
	}
	return m
}()

// All returns every descriptor in the canonical export column order.
func All() []Descriptor {
	return descriptors
}

// ByName looks up one descriptor.
func ByName(name string) (Descriptor, bool) {
	d, ok := byName[name]
	return d, ok
}

// Names returns the canonical field names in column order.
func Names() []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}
