package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/utils"
)

// Catalog column headers, matched exactly after trimming.
const (
	HeaderPeriod      = "PERİYOT"
	HeaderDepartment  = "BİRİM"
	HeaderTitle       = "GÖREV"
	HeaderDescription = "AÇIKLAMA"
	HeaderDocument    = "BELGE"
)

var catalogHeaders = []string{HeaderPeriod, HeaderDepartment, HeaderTitle, HeaderDescription, HeaderDocument}

var (
	ErrUnreadable     = apierrors.Validation("spreadsheet could not be read")
	ErrMissingColumns = apierrors.Validation("spreadsheet is missing required columns")
	ErrNoRows         = apierrors.Validation("spreadsheet contains no tasks")
	ErrInvalidRows    = apierrors.Validation("spreadsheet contains invalid rows")
)

var periodCodes = map[string]models.Frequency{
	"gunluk":   models.FrequencyDaily,
	"haftalik": models.FrequencyWeekly,
	"aylik":    models.FrequencyMonthly,
	"yillik":   models.FrequencyYearly,
}

// PeriodCode is the catalog code written for f. Frequencies the importer
// has no code for are written under their own name.
func PeriodCode(f models.Frequency) string {
	for code, freq := range periodCodes {
		if freq == f {
			return code
		}
	}
	return string(f)
}

// CatalogRow is one parsed catalog line. Row is the 1-based sheet row.
type CatalogRow struct {
	Row           int
	Title         string
	Description   string
	Department    models.Department
	Frequency     models.Frequency
	RequiresPhoto bool
}

// ParseCatalog reads the first sheet of an xlsx workbook.
func ParseCatalog(r io.Reader) ([]CatalogRow, error) {
	rows, err := readFirstSheet(r)
	if err != nil {
		return nil, ErrUnreadable.Wrap(err)
	}
	return ParseCatalogRows(rows)
}

// ParseCatalogRows validates every row and either returns all of them or a
// single ErrInvalidRows whose details list one "Row N: ..." message per bad row.
func ParseCatalogRows(rows [][]string) ([]CatalogRow, error) {
	if len(rows) == 0 {
		return nil, ErrMissingColumns.WithDetails([]string{HeaderPeriod, HeaderDepartment, HeaderTitle})
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	var missing []string
	for _, h := range []string{HeaderPeriod, HeaderDepartment, HeaderTitle} {
		if _, ok := cols[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, ErrMissingColumns.WithDetails(missing)
	}

	cell := func(row []string, header string) string {
		i, ok := cols[header]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var parsed []CatalogRow
	var problems []string
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		title := cell(row, HeaderTitle)
		dept := cell(row, HeaderDepartment)
		period := cell(row, HeaderPeriod)

		if title == "" || dept == "" || period == "" {
			problems = append(problems, fmt.Sprintf("Row %d: missing required field", rowNum))
			continue
		}

		department := models.Department(utils.FoldTurkish(dept))
		if !department.ValidForTask() {
			problems = append(problems, fmt.Sprintf("Row %d: invalid department %q", rowNum, dept))
			continue
		}

		frequency, ok := periodCodes[utils.FoldTurkish(period)]
		if !ok {
			problems = append(problems, fmt.Sprintf("Row %d: invalid period %q", rowNum, period))
			continue
		}

		parsed = append(parsed, CatalogRow{
			Row:           rowNum,
			Title:         title,
			Description:   cell(row, HeaderDescription),
			Department:    department,
			Frequency:     frequency,
			RequiresPhoto: utils.FoldTurkish(cell(row, HeaderDocument)) == "evet",
		})
	}

	if len(problems) > 0 {
		return nil, ErrInvalidRows.WithDetails(problems)
	}
	if len(parsed) == 0 {
		return nil, ErrNoRows
	}
	return parsed, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCatalog writes tasks with the import columns so the file can be edited and re-imported.
func WriteCatalog(w io.Writer, tasks []models.Task) error {
	rows := make([][]interface{}, 0, len(tasks))
	for _, t := range tasks {
		belge := "HAYIR"
		if t.RequiresPhoto {
			belge = "EVET"
		}
		rows = append(rows, []interface{}{
			PeriodCode(t.Frequency),
			string(t.Department),
			t.Title,
			t.Description,
			belge,
		})
	}
	return writeSheet(w, "Görevler", catalogHeaders, rows, []float64{12, 12, 40, 50, 8})
}
