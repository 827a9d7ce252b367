package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/magazzino-io/inventario-api/internal/fields"
	"github.com/magazzino-io/inventario-api/internal/models"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
)

type articleCreator interface {
	Create(ctx context.Context, req SaveArticleRequest) (*models.Article, error)
}

// DefaultProfileName identifies the built-in bilingual column mapping.
const DefaultProfileName = "default"

// defaultProfile maps canonical fields to Italian and English column
// spellings. The first alias of every field doubles as the spreadsheet
// export header, which keeps an unmodified export importable through
// this same profile.
var defaultProfile = models.ImportProfile{
	Name: DefaultProfileName,
	Fields: []models.ProfileField{
		{Field: "codice", Aliases: []string{"codice", "code"}},
		{Field: "descrizione", Aliases: []string{"descrizione", "description"}},
		{Field: "cliente", Aliases: []string{"cliente", "customer"}},
		{Field: "commessa", Aliases: []string{"commessa", "job"}},
		{Field: "ordine", Aliases: []string{"ordine", "order"}},
		{Field: "fornitore", Aliases: []string{"fornitore", "supplier"}},
		{Field: "magazzino", Aliases: []string{"magazzino", "warehouse"}},
		{Field: "posizione", Aliases: []string{"posizione", "position"}},
		{Field: "arrivo", Aliases: []string{"arrivo", "arrival"}},
		{Field: "consegna", Aliases: []string{"consegna", "delivery"}},
		{Field: "buono", Aliases: []string{"buono", "voucher"}},
		{Field: "protocollo", Aliases: []string{"protocollo", "protocol"}},
		{Field: "stato", Aliases: []string{"stato", "status"}},
		{Field: "note", Aliases: []string{"note", "notes"}},
		{Field: "seriale", Aliases: []string{"seriale", "serial"}},
		{Field: "peso", Aliases: []string{"peso", "weight"}},
		{Field: "colli", Aliases: []string{"colli", "packages", "qty"}},
		{Field: "larghezza", Aliases: []string{"larghezza", "width"}},
		{Field: "lunghezza", Aliases: []string{"lunghezza", "length"}},
		{Field: "altezza", Aliases: []string{"altezza", "height"}},
		{Field: "data_arrivo", Aliases: []string{"data_arrivo", "data arrivo", "intake date"}},
		{Field: "data_uscita", Aliases: []string{"data_uscita", "data uscita", "outbound date"}},
	},
}

// DefaultProfile returns a copy of the built-in bilingual mapping.
func DefaultProfile() models.ImportProfile {
	return defaultProfile
}

// ExportHeaderFor returns the spreadsheet header used for a canonical
// field: the first alias in the default profile, or the field name itself
// for derived fields that no profile maps.
func ExportHeaderFor(field string) string {
	for _, pf := range defaultProfile.Fields {
		if pf.Field == field {
			return pf.Aliases[0]
		}
	}
	return field
}

// ImportService loads named column-mapping profiles and runs spreadsheet
// batch imports through them.
type ImportService struct {
	creator  articleCreator
	profiles map[string]models.ImportProfile
	logger   *zap.Logger
}

// NewImportService constructs the service, loading extra profiles from the
// given JSON file when it exists. The built-in default is always available
// and cannot be removed, only shadowed.
func NewImportService(creator articleCreator, profilesPath string, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ImportService{
		creator:  creator,
		profiles: map[string]models.ImportProfile{DefaultProfileName: defaultProfile},
		logger:   logger,
	}
	if profilesPath != "" {
		if err := s.loadProfiles(profilesPath); err != nil {
			logger.Warn("import_profiles_load_failed", zap.String("path", profilesPath), zap.Error(err))
		}
	}
	return s
}

func (s *ImportService) loadProfiles(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read profiles file: %w", err)
	}
	var profiles []models.ImportProfile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return fmt.Errorf("parse profiles file: %w", err)
	}
	for _, profile := range profiles {
		if profile.Name == "" {
			continue
		}
		for _, pf := range profile.Fields {
			if _, ok := fields.ByName(pf.Field); !ok {
				s.logger.Warn("import_profile_unknown_field",
					zap.String("profile", profile.Name), zap.String("field", pf.Field))
			}
		}
		s.profiles[profile.Name] = profile
	}
	return nil
}

// Profiles lists the available profile names, default included.
func (s *ImportService) Profiles() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	return names
}

// Profile resolves a profile by name. An empty name selects the built-in
// default; a name that matches no loaded profile is a caller error. Only a
// missing or corrupt profile file falls back silently, never a bad name.
func (s *ImportService) Profile(name string) (models.ImportProfile, error) {
	if name == "" {
		return s.profiles[DefaultProfileName], nil
	}
	profile, ok := s.profiles[name]
	if !ok {
		return models.ImportProfile{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import profile %q", name))
	}
	return profile, nil
}

// columnBinding ties one canonical field to the header column that won
// alias resolution for this sheet.
type columnBinding struct {
	field string
	col   int
}

// ImportXLSX reads the first sheet of the workbook and creates one article
// per data row through the resolved profile. Rows are isolated: a row that
// fails validation or persistence is recorded and skipped, never aborting
// the rest of the batch.
func (s *ImportService) ImportXLSX(ctx context.Context, profileName string, r io.Reader) (*models.ImportResult, error) {
	profile, err := s.Profile(profileName)
	if err != nil {
		return nil, err
	}

	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read spreadsheet")
	}
	defer workbook.Close() //nolint:errcheck

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read sheet rows")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet is empty")
	}

	bindings := resolveBindings(profile, rows[0])
	if len(bindings) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no header column matches the selected profile")
	}

	result := &models.ImportResult{Profile: profile.Name}
	for i, row := range rows[1:] {
		if rowIsEmpty(row) {
			continue
		}
		result.Total++
		rowNumber := i + 2

		values := make(map[string]string, len(bindings))
		for _, binding := range bindings {
			if binding.col < len(row) {
				values[binding.field] = strings.TrimSpace(row[binding.col])
			}
		}

		if _, err := s.creator.Create(ctx, SaveArticleRequest{Fields: values}); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNumber, Message: err.Error()})
			s.logger.Warn("import_row_failed", zap.Int("row", rowNumber), zap.Error(err))
			continue
		}
		result.Imported++
	}
	return result, nil
}

// resolveBindings matches profile aliases against the header row. Alias
// order decides: the first alias present in the header wins the field,
// and later aliases are ignored even when their columns also exist.
func resolveBindings(profile models.ImportProfile, header []string) []columnBinding {
	index := make(map[string]int, len(header))
	for col, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = col
		}
	}

	var bindings []columnBinding
	for _, pf := range profile.Fields {
		if _, ok := fields.ByName(pf.Field); !ok {
			continue
		}
		for _, alias := range pf.Aliases {
			if col, ok := index[strings.ToLower(strings.TrimSpace(alias))]; ok {
				bindings = append(bindings, columnBinding{field: pf.Field, col: col})
				break
			}
		}
	}
	return bindings
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
