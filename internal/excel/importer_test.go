package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

type fakeAdder struct {
	added []progress.NewDrill
	fail  string
}

func (f *fakeAdder) AddDrill(_ context.Context, userID int64, nd progress.NewDrill) (models.Drill, error) {
	if nd.Prompt == f.fail {
		return models.Drill{}, errors.New("boom")
	}
	f.added = append(f.added, nd)
	return models.Drill{ID: "id", UserID: userID, Prompt: nd.Prompt, Module: nd.Module}, nil
}

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &values))
	}
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportDrillsFromExcel(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"Prompt", "Answer", "Module", "Notes"},
		{"ubiquitous", "found everywhere", "Vocabulary", ""},
		{"Describe a memorable trip", "", "speaking", "part 2 cue card"},
		{"", "orphan answer", "reading", ""},
		{"Plot the bar chart", "", "cooking", ""},
		{"tricky", "", "", ""},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = 42
	adder := &fakeAdder{}

	result, err := ImportDrills(context.Background(), cfg, adder)
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Row 4")
	assert.Contains(t, result.Errors[1], "Row 5")

	require.Len(t, adder.added, 3)
	assert.Equal(t, models.ModuleVocabulary, adder.added[0].Module)
	assert.Equal(t, models.ModuleSpeaking, adder.added[1].Module)
	assert.Equal(t, "part 2 cue card", adder.added[1].Notes)
	assert.Equal(t, models.ModuleVocabulary, adder.added[2].Module)
}

func TestImportDrillsFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.csv")
	content := "prompt,answer,module,notes\n" +
		"\"coherence, cohesion\",linking ideas,writing,\n" +
		",,,\n" +
		"fail me,x,reading,\n" +
		"scan for dates,,reading,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	adder := &fakeAdder{fail: "fail me"}

	result, err := ImportDrills(context.Background(), cfg, adder)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Errors[0], "failed to create drill")
	assert.Equal(t, "coherence, cohesion", adder.added[0].Prompt)
	assert.Equal(t, models.ModuleWriting, adder.added[0].Module)
}

func TestImportDrillsMissingFile(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	_, err := ImportDrills(context.Background(), cfg, &fakeAdder{})
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 3, columnToIndex("d"))
	assert.Equal(t, 26, columnToIndex("AA"))
}
