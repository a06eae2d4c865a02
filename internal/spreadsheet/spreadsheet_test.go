package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

func workbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func details(t *testing.T, err error) []string {
	t.Helper()
	var de *apierrors.DomainError
	require.ErrorAs(t, err, &de)
	out, ok := de.Details.([]string)
	require.True(t, ok, "details should be a list of messages, got %T", de.Details)
	return out
}

func TestParseCatalog_Valid(t *testing.T) {
	buf := workbook(t, [][]string{
		{"PERİYOT", "BİRİM", "GÖREV", "AÇIKLAMA", "BELGE"},
		{"gunluk", "istasyon", "Pompa kontrolü", "Tüm pompalar", "EVET"},
		{"YILLIK", "İSTASYON", "Yangın tüpü", "", "hayır"},
		{},
		{"  Haftalik ", "Muhasebe", "Kasa sayımı", "", ""},
		{"aylik", "vardiya", "Tank ölçümü", "", "evet"},
	})

	rows, err := ParseCatalog(buf)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, CatalogRow{Row: 2, Title: "Pompa kontrolü", Description: "Tüm pompalar", Department: models.DepartmentStation, Frequency: models.FrequencyDaily, RequiresPhoto: true}, rows[0])
	assert.Equal(t, models.FrequencyYearly, rows[1].Frequency)
	assert.Equal(t, models.DepartmentStation, rows[1].Department)
	assert.False(t, rows[1].RequiresPhoto)
	assert.Equal(t, 5, rows[2].Row, "blank rows keep sheet numbering")
	assert.Equal(t, models.DepartmentAccounting, rows[2].Department)
	assert.True(t, rows[3].RequiresPhoto)
}

func TestParseCatalog_OptionalColumnsAndOrder(t *testing.T) {
	rows, err := ParseCatalogRows([][]string{
		{" GÖREV ", "PERİYOT", "BİRİM"},
		{"Kasa", "aylik", "muhasebe"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kasa", rows[0].Title)
	assert.Empty(t, rows[0].Description)
	assert.False(t, rows[0].RequiresPhoto)
}

func TestParseCatalog_MissingColumns(t *testing.T) {
	_, err := ParseCatalogRows([][]string{
		{"PERIYOT", "BİRİM", "AÇIKLAMA"},
		{"gunluk", "istasyon", "x"},
	})
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Equal(t, []string{"PERİYOT", "GÖREV"}, details(t, err), "header match is exact")
}

func TestParseCatalog_ThreeValidOneMissingTitle(t *testing.T) {
	_, err := ParseCatalogRows([][]string{
		{"PERİYOT", "BİRİM", "GÖREV"},
		{"gunluk", "istasyon", "A"},
		{"gunluk", "istasyon", "B"},
		{"gunluk", "istasyon", ""},
		{"gunluk", "istasyon", "D"},
	})

	assert.ErrorIs(t, err, ErrInvalidRows)
	assert.True(t, apierrors.IsKind(err, apierrors.KindValidation))
	assert.Equal(t, []string{"Row 4: missing required field"}, details(t, err))
}

func TestParseCatalog_ReportsEveryBadRow(t *testing.T) {
	_, err := ParseCatalogRows([][]string{
		{"PERİYOT", "BİRİM", "GÖREV"},
		{"gunluk", "depo", "A"},
		{"saatlik", "istasyon", "B"},
		{"", "istasyon", "C"},
		{"aylik", "muhasebe", "D"},
	})

	assert.Equal(t, []string{
		`Row 2: invalid department "depo"`,
		`Row 3: invalid period "saatlik"`,
		"Row 4: missing required field",
	}, details(t, err))
}

func TestParseCatalog_Empty(t *testing.T) {
	_, err := ParseCatalogRows([][]string{{"PERİYOT", "BİRİM", "GÖREV"}, {"", " "}})
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = ParseCatalog(bytes.NewBufferString("not a workbook"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestCatalog_RoundTrip(t *testing.T) {
	imported, err := ParseCatalog(workbook(t, [][]string{
		{"PERİYOT", "BİRİM", "GÖREV", "AÇIKLAMA", "BELGE"},
		{"gunluk", "istasyon", "Pompa kontrolü", "d1", "EVET"},
		{"haftalik", "muhasebe", "Kasa sayımı", "", ""},
		{"yillik", "vardiya", "Yangın tatbikatı", "d3", "evet"},
	}))
	require.NoError(t, err)

	tasks := make([]models.Task, 0, len(imported))
	for _, r := range imported {
		tasks = append(tasks, models.Task{
			Title:         r.Title,
			Description:   r.Description,
			Department:    r.Department,
			Frequency:     r.Frequency,
			RequiresPhoto: r.RequiresPhoto,
		})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, tasks))

	exported, err := ParseCatalog(&buf)
	require.NoError(t, err)

	type tuple struct {
		title string
		dept  models.Department
		freq  models.Frequency
		photo bool
	}
	set := func(rows []CatalogRow) []tuple {
		var out []tuple
		for _, r := range rows {
			out = append(out, tuple{r.Title, r.Department, r.Frequency, r.RequiresPhoto})
		}
		return out
	}
	assert.ElementsMatch(t, set(imported), set(exported))
}

func TestPeriodCode(t *testing.T) {
	assert.Equal(t, "gunluk", PeriodCode(models.FrequencyDaily))
	assert.Equal(t, "yillik", PeriodCode(models.FrequencyYearly))
	assert.Equal(t, "once", PeriodCode(models.FrequencyOnce))
	assert.Equal(t, "quarterly", PeriodCode(models.FrequencyQuarterly))
}

func TestWriteReport(t *testing.T) {
	submitted := time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := WriteReport(&buf, []ReportRow{{
		Task:         "Pompa kontrolü",
		Department:   "istasyon",
		Staff:        "Ayşe",
		Supervisor:   "Ali",
		Status:       "submitted",
		AssignedDate: "2024-01-01",
		SubmittedAt:  &submitted,
		DelayStatus:  "delayed by 2 days",
	}}, time.FixedZone("TRT", 3*60*60))
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ReportHeaders, rows[0])
	assert.Equal(t, "Pompa kontrolü", rows[1][0])
	assert.Equal(t, "2024-01-03 09:00", rows[1][8])
	assert.Equal(t, "delayed by 2 days", rows[1][10])
}
