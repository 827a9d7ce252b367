package measure

import (
	"strings"
	"time"
)

// ISODate is the canonical sortable date form used in storage.
const ISODate = "2006-01-02"

var boundaryDateLayouts = []string{
	ISODate,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// NormalizeDate converts a boundary date (day/month/year in its common
// spellings, or already-canonical ISO) to yyyy-mm-dd. Unparseable input is
// returned trimmed but otherwise as given: best-effort by design, the
// record is never rejected over a bad date.
func NormalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	for _, layout := range boundaryDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(ISODate)
		}
	}
	return trimmed
}

// FormatDisplayDate renders a canonical ISO date as dd/mm/yyyy for print
// surfaces. Non-canonical text passes through unchanged.
func FormatDisplayDate(stored string) string {
	if stored == "" {
		return ""
	}
	if t, err := time.Parse(ISODate, stored); err == nil {
		return t.Format("02/01/2006")
	}
	return stored
}
