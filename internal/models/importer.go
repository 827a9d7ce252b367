package models

// ProfileField maps one canonical article field to the ordered list of
// source-column spellings that may carry it. Alias order is significant:
// resolution takes the first alias present in the row, so reordering
// would silently change import results.
type ProfileField struct {
	Field   string   `json:"field"`
	Aliases []string `json:"aliases"`
}

// ImportProfile is a named column-mapping used by the spreadsheet importer.
type ImportProfile struct {
	Name   string         `json:"name"`
	Fields []ProfileField `json:"fields"`
}

// ImportRowError records why a single spreadsheet row was skipped.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises one batch import. Rows are processed
// independently, so a failed row never aborts the batch.
type ImportResult struct {
	Profile  string           `json:"profile"`
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}
