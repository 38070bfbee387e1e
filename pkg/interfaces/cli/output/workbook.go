package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

const (
	requirementsSheet = "Requirements"
	shortfallsSheet   = "Shortfalls"
	missingSheet      = "Missing Formulas"
	lotPicksSheet     = "Lot Picks"
)

type sheetSpec struct {
	name   string
	rows   [][]interface{}
	widths []float64
}

// WorkbookFilename is the download name used for a batch export
func WorkbookFilename(result *dto.CalculationResult) string {
	return fmt.Sprintf("%s_materials.xlsx", batchOf(result))
}

// Workbook renders the result as an xlsx workbook with one sheet per table.
// The caller closes the returned file.
func Workbook(result *dto.CalculationResult) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	var sheets []sheetSpec
	if result.Report != nil {
		sheets = append(sheets, sheetSpec{requirementsSheet, requirementCells(result.Report), []float64{10, 16, 30, 12, 6, 10, 12}})
	}
	if result.Summary != nil {
		sheets = append(sheets, sheetSpec{shortfallsSheet, shortfallCells(result.Summary), []float64{16, 16, 30, 12, 6, 12, 12, 12, 10, 12}})
	}
	if result.Report != nil {
		sheets = append(sheets, sheetSpec{missingSheet, stringCells(missingRows(result.Report)), []float64{14, 30, 10, 20}})
	}
	if len(result.LotPicks) > 0 {
		sheets = append(sheets, sheetSpec{lotPicksSheet, lotPickCells(result.LotPicks), []float64{16, 14, 12, 10, 12, 10}})
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, sheet.name, sheet.rows, sheet.widths, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", sheet.name, err)
		}
	}

	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, widths []float64, headerStyle int) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		last, _ := excelize.ColumnNumberToName(len(rows[0]))
		if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
			return err
		}
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func requirementCells(report *dto.RequirementReport) [][]interface{} {
	rows := [][]interface{}{toCells(requirementHeader)}
	for _, r := range report.Raw {
		rows = append(rows, []interface{}{"raw", r.MaterialID, r.MaterialName, r.Category.String(), r.UOM, r.IsClientMaterial, r.RequiredQty.InexactFloat64()})
	}
	for _, r := range report.Packaging {
		rows = append(rows, []interface{}{"packaging", r.MaterialID, r.MaterialName, r.Category.String(), r.UOM, r.IsClientMaterial, r.RequiredQty.InexactFloat64()})
	}
	return rows
}

func shortfallCells(s *entities.AllocationSummary) [][]interface{} {
	rows := [][]interface{}{toCells(shortfallHeader)}
	for _, l := range s.Lines {
		rows = append(rows, []interface{}{
			string(l.SubjectKind), l.SubjectID, l.SubjectName, l.Category.String(), l.UOM,
			l.RequiredQty.InexactFloat64(), l.AllocatedQty.InexactFloat64(), l.ShortfallQty.InexactFloat64(),
			l.IsClientMaterial, l.Suggestion.String(),
		})
	}

	rows = append(rows,
		[]interface{}{},
		[]interface{}{"status", s.Status.String()},
		[]interface{}{"total_required", s.TotalRequired.InexactFloat64()},
		[]interface{}{"total_allocated", s.TotalAllocated.InexactFloat64()},
		[]interface{}{"total_shortfall", s.TotalShortfall.InexactFloat64()},
	)
	return rows
}

func lotPickCells(picks []entities.LotPick) [][]interface{} {
	rows := [][]interface{}{toCells(lotPickHeader)}
	for _, p := range picks {
		rows = append(rows, []interface{}{p.MaterialID, p.LotNumber, p.Location, p.Owner.String(), p.ReceiptDate.Format(dateLayout), p.Quantity.InexactFloat64()})
	}
	return rows
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func stringCells(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = toCells(row)
	}
	return out
}

// generateWorkbookOutput saves the workbook into the output directory (or the working directory)
func generateWorkbookOutput(result *dto.CalculationResult, config Config) error {
	dir := config.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := Workbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	filename := filepath.Join(dir, WorkbookFilename(result))
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "Workbook saved to: %s\n", filename)
	}
	return nil
}
