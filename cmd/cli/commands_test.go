package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"evdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixturePaths(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	ev, chargers, err := testkit.NewFixture(testkit.DefaultGeneratorConfig()).WriteFiles(t.TempDir(), "xlsx", testkit.DefaultColumns())
	require.NoError(t, err)
	return ev, chargers
}

func TestSummaryCommand(t *testing.T) {
	ev, chargers := fixturePaths(t)

	cmd := newSummaryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--ev", ev, "--charger", chargers, "--width", "40", "--height", "6"})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "rows:    24")
	assert.Contains(t, text, "pearson r")
	assert.Contains(t, text, "vehicles per charger")
	assert.Contains(t, text, "registrations, blue: chargers")
}

func TestExportCommand(t *testing.T) {
	ev, chargers := fixturePaths(t)
	out := filepath.Join(t.TempDir(), "report.xlsx")

	cmd := newExportCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--ev", ev, "--charger", chargers, "--out", out})
	require.NoError(t, cmd.Execute())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Len(t, rows, 25)
}

func TestImportCommand_RequiresEV(t *testing.T) {
	cmd := newImportCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--database-url", "postgres://localhost/none"})
	assert.Error(t, cmd.Execute())
}

func TestLoad_NoInput(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("EV_FILE", "")
	t.Setenv("DATABASE_URL", "")

	var flags sourceFlags
	_, _, err := flags.load(t.Context())
	assert.Error(t, err)
}
