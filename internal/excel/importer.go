package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	UserID        int64  // Owner of the imported drills
	PromptColumn  string // Column with the prompt
	AnswerColumn  string // Column with the model answer
	ModuleColumn  string // Column with the IELTS module
	NotesColumn   string // Column with free-form notes
	DefaultModule models.Module
	SheetName     string // Name of the sheet to import, first sheet when empty
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		PromptColumn:  "A",
		AnswerColumn:  "B",
		ModuleColumn:  "C",
		NotesColumn:   "D",
		DefaultModule: models.ModuleVocabulary,
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// DrillAdder creates drills; progress.Service satisfies it.
type DrillAdder interface {
	AddDrill(ctx context.Context, userID int64, nd progress.NewDrill) (models.Drill, error)
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

type drillRow struct {
	Prompt string `validate:"required,max=1000"`
	Answer string `validate:"max=4000"`
	Module string `validate:"oneof=listening reading writing speaking vocabulary"`
	Notes  string `validate:"max=4000"`
}

var validate = validator.New()

// ImportDrills imports drills from an Excel or CSV file
func ImportDrills(ctx context.Context, config ImportConfig, adder DrillAdder) (*ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	if config.DefaultModule == "" {
		config.DefaultModule = models.ModuleVocabulary
	}

	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if blank(row) {
			continue
		}
		result.TotalProcessed++

		if err := importRow(ctx, config, adder, row); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Created++
	}
	return result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func importRow(ctx context.Context, config ImportConfig, adder DrillAdder, row []string) error {
	r := drillRow{
		Prompt: cell(row, config.PromptColumn),
		Answer: cell(row, config.AnswerColumn),
		Module: strings.ToLower(cell(row, config.ModuleColumn)),
		Notes:  cell(row, config.NotesColumn),
	}
	if r.Module == "" {
		r.Module = string(config.DefaultModule)
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s", strings.ToLower(verrs[0].Field()))
		}
		return err
	}

	_, err := adder.AddDrill(ctx, config.UserID, progress.NewDrill{
		Module: models.Module(r.Module),
		Prompt: r.Prompt,
		Answer: r.Answer,
		Notes:  r.Notes,
	})
	if err != nil {
		return fmt.Errorf("failed to create drill: %w", err)
	}
	return nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
