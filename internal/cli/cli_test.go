package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/spreadsheet"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := strings.Join([]string{
		"server:",
		"  timezone: UTC",
		"db:",
		"  driver: sqlite",
		"  path: " + filepath.Join(dir, "tasks.db"),
		"redis:",
		"  enabled: false",
		"session:",
		"  secret: 0123456789abcdef0123",
		"storage:",
		"  driver: local",
		"  local_dir: " + filepath.Join(dir, "uploads"),
		"report:",
		"  recipient: mudur@istasyon.example",
		"log:",
		"  level: error",
	}, "\n")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeWorkbook(t *testing.T, tasks []models.Task) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gorevler.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, spreadsheet.WriteCatalog(f, tasks))
	require.NoError(t, f.Close())
	return path
}

func TestCommands(t *testing.T) {
	config := writeConfig(t)

	out, err := execute(t, "migrate", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	_, err = execute(t, "catalog", "import", writeWorkbook(t, nil), "--config", config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active general manager")

	out, err = execute(t, "user", "create-manager", "--config", config,
		"--email", "mudur@istasyon.example", "--name", "Genel Müdür", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Created general manager Genel Müdür")

	_, err = execute(t, "user", "create-manager", "--config", config,
		"--email", "MUDUR@istasyon.example", "--name", "Tekrar", "--password", "secret123")
	assert.Error(t, err, "email is already taken")

	workbook := writeWorkbook(t, []models.Task{
		{Title: "Pompa kontrolü", Department: models.DepartmentStation, Frequency: models.FrequencyDaily, RequiresPhoto: true},
		{Title: "Kasa sayımı", Department: models.DepartmentAccounting, Frequency: models.FrequencyWeekly},
	})
	out, err = execute(t, "catalog", "import", workbook, "--config", config, "--as", "mudur@istasyon.example")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 tasks, replaced 0")

	exported := filepath.Join(t.TempDir(), "export.xlsx")
	_, err = execute(t, "catalog", "export", "--config", config, "-o", exported)
	require.NoError(t, err)
	f, err := os.Open(exported)
	require.NoError(t, err)
	defer f.Close()
	rows, err := spreadsheet.ParseCatalog(f)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	out, err = execute(t, "report", "send", "--config", config, "--date", "2024-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent report for 2024-01-02 to mudur@istasyon.example")

	out, err = execute(t, "report", "show", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 0`)
}

func TestImportReportsBadRows(t *testing.T) {
	config := writeConfig(t)
	_, err := execute(t, "migrate", "--config", config)
	require.NoError(t, err)
	_, err = execute(t, "user", "create-manager", "--config", config,
		"--email", "mudur@istasyon.example", "--name", "Genel Müdür", "--password", "secret123")
	require.NoError(t, err)

	workbook := writeWorkbook(t, []models.Task{
		{Title: "", Department: models.DepartmentStation, Frequency: models.FrequencyDaily},
	})
	_, err = execute(t, "catalog", "import", workbook, "--config", config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rows")
}

func TestCreateManagerValidatesInput(t *testing.T) {
	_, err := execute(t, "user", "create-manager", "--email", "not-an-email", "--password", "secret123", "--name", "x")
	assert.Error(t, err)

	_, err = execute(t, "user", "create-manager", "--email", "a@b.example", "--password", "123", "--name", "x")
	assert.Error(t, err)
}
