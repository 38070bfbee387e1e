package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	// Writer receives text and JSON output when no directory is given. Defaults to stdout.
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer != nil {
		return c.Writer
	}
	return os.Stdout
}

// Generate creates output in the specified format
func Generate(result *dto.CalculationResult, config Config) error {
	switch config.Format {
	case "", "text":
		return WriteText(config.writer(), result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "xlsx":
		return generateWorkbookOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// WriteText writes a human-readable report. Either half of the result may be absent.
func WriteText(w io.Writer, result *dto.CalculationResult, config Config) error {
	batchID := batchOf(result)
	fmt.Fprintf(w, "Materials Calculation: %s\n", batchID)
	fmt.Fprintf(w, "======================\n\n")
	if config.Elapsed > 0 {
		fmt.Fprintf(w, "Elapsed: %v\n\n", config.Elapsed)
	}

	if report := result.Report; report != nil {
		writeRequirementsText(w, "Raw Materials", report.Raw)
		writeRequirementsText(w, "Packaging", report.Packaging)

		if len(report.MissingFormulas) > 0 {
			fmt.Fprintf(w, "Missing Formulas:\n")
			fmt.Fprintf(w, "%-10s %-30s %-10s %-20s\n", "Line", "Product", "Qty", "Reason")
			fmt.Fprintf(w, "%-10s %-30s %-10s %-20s\n", "----------", "------------------------------", "----------", "--------------------")
			for _, m := range report.MissingFormulas {
				fmt.Fprintf(w, "%-10s %-30s %-10s %-20s\n", m.OrderLineID, m.ProductName, m.Quantity, m.Reason)
			}
			fmt.Fprintln(w)
		}
	}

	if summary := result.Summary; summary != nil {
		fmt.Fprintf(w, "Status: %s (source: %s)\n", summary.Status, summary.Source)
		fmt.Fprintf(w, "Required: %s  Allocated: %s  Shortfall: %s\n\n",
			summary.TotalRequired, summary.TotalAllocated, summary.TotalShortfall)

		if shortfalls := summary.ShortfallLines(); len(shortfalls) > 0 {
			fmt.Fprintf(w, "Shortfalls:\n")
			fmt.Fprintf(w, "%-15s %-30s %-10s %-10s %-10s %-8s %-10s\n",
				"Subject", "Name", "Required", "Allocated", "Short", "Client", "Suggest")
			fmt.Fprintf(w, "%-15s %-30s %-10s %-10s %-10s %-8s %-10s\n",
				"---------------", "------------------------------", "----------", "----------", "----------", "--------", "----------")
			for _, line := range shortfalls {
				fmt.Fprintf(w, "%-15s %-30s %-10s %-10s %-10s %-8t %-10s\n",
					line.SubjectID, line.SubjectName, line.RequiredQty, line.AllocatedQty,
					line.ShortfallQty, line.IsClientMaterial, line.Suggestion)
			}
			fmt.Fprintln(w)
		}

		if len(result.LotPicks) > 0 {
			fmt.Fprintf(w, "Lot Picks:\n")
			fmt.Fprintf(w, "%-15s %-12s %-10s %-10s %-12s %-10s\n", "Material", "Lot", "Location", "Owner", "Received", "Qty")
			fmt.Fprintf(w, "%-15s %-12s %-10s %-10s %-12s %-10s\n", "---------------", "------------", "----------", "----------", "------------", "----------")
			for _, p := range result.LotPicks {
				fmt.Fprintf(w, "%-15s %-12s %-10s %-10s %-12s %-10s\n",
					p.MaterialID, p.LotNumber, p.Location, p.Owner, p.ReceiptDate.Format(dateLayout), p.Quantity)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Client requests: %d\n", len(result.Queues.ClientRequests))
		fmt.Fprintf(w, "Purchase requisitions: %d\n", len(result.Queues.PurchaseRequisitions))
	}

	return nil
}

func writeRequirementsText(w io.Writer, title string, reqs []entities.MaterialRequirement) {
	if len(reqs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "%-15s %-30s %-12s %-6s %-8s\n", "Material", "Name", "Required", "UOM", "Client")
	fmt.Fprintf(w, "%-15s %-30s %-12s %-6s %-8s\n", "---------------", "------------------------------", "------------", "------", "--------")
	for _, req := range reqs {
		fmt.Fprintf(w, "%-15s %-30s %-12s %-6s %-8t\n",
			req.MaterialID, req.MaterialName, req.RequiredQty, req.UOM, req.IsClientMaterial)
	}
	fmt.Fprintln(w)
}

// WriteValidation writes a catalog validation result
func WriteValidation(w io.Writer, result *services.ValidationResult) {
	if result.Valid() && len(result.Warnings) == 0 {
		fmt.Fprintln(w, "Catalog is consistent")
		return
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "ERROR   %s\n", e)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "WARNING %s\n", warning)
	}
	fmt.Fprintf(w, "%d errors, %d warnings\n", len(result.Errors), len(result.Warnings))
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.CalculationResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, batchOf(result)+"_materials.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one file per table into the output directory
func generateCSVOutput(result *dto.CalculationResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := map[string][][]string{}
	if result.Report != nil {
		tables["requirements.csv"] = requirementRows(result.Report)
		tables["missing_formulas.csv"] = missingRows(result.Report)
	}
	if result.Summary != nil {
		tables["shortfalls.csv"] = shortfallRows(result.Summary)
	}
	if len(result.LotPicks) > 0 {
		tables["lot_picks.csv"] = lotPickRows(result.LotPicks)
	}

	for name, rows := range tables {
		filename := filepath.Join(config.OutputDir, name)
		if err := writeCSV(filename, rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "CSV results saved to: %s\n", filename)
		}
	}
	return nil
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

var (
	requirementHeader = []string{"bucket", "material_id", "material_name", "category", "uom", "is_client_material", "required_qty"}
	shortfallHeader   = []string{"subject_kind", "subject_id", "subject_name", "category", "uom", "required_qty", "allocated_qty", "shortfall_qty", "is_client_material", "suggestion"}
	missingHeader     = []string{"order_line_id", "product_name", "quantity", "reason"}
	lotPickHeader     = []string{"material_id", "lot_number", "location", "owner", "receipt_date", "quantity"}
)

const dateLayout = "2006-01-02"

func requirementRows(report *dto.RequirementReport) [][]string {
	rows := [][]string{requirementHeader}
	for _, bucket := range []struct {
		name string
		reqs []entities.MaterialRequirement
	}{{"raw", report.Raw}, {"packaging", report.Packaging}} {
		for _, r := range bucket.reqs {
			rows = append(rows, []string{
				bucket.name, r.MaterialID, r.MaterialName, r.Category.String(), r.UOM,
				strconv.FormatBool(r.IsClientMaterial), r.RequiredQty.String(),
			})
		}
	}
	return rows
}

func shortfallRows(summary *entities.AllocationSummary) [][]string {
	rows := [][]string{shortfallHeader}
	for _, l := range summary.Lines {
		rows = append(rows, []string{
			string(l.SubjectKind), l.SubjectID, l.SubjectName, l.Category.String(), l.UOM,
			l.RequiredQty.String(), l.AllocatedQty.String(), l.ShortfallQty.String(),
			strconv.FormatBool(l.IsClientMaterial), l.Suggestion.String(),
		})
	}
	return rows
}

func missingRows(report *dto.RequirementReport) [][]string {
	rows := [][]string{missingHeader}
	for _, m := range report.MissingFormulas {
		rows = append(rows, []string{m.OrderLineID, m.ProductName, m.Quantity.String(), string(m.Reason)})
	}
	return rows
}

func lotPickRows(picks []entities.LotPick) [][]string {
	rows := [][]string{lotPickHeader}
	for _, p := range picks {
		rows = append(rows, []string{p.MaterialID, p.LotNumber, p.Location, p.Owner.String(), p.ReceiptDate.Format(dateLayout), p.Quantity.String()})
	}
	return rows
}

func batchOf(result *dto.CalculationResult) string {
	switch {
	case result.Report != nil && result.Report.BatchID != "":
		return result.Report.BatchID
	case result.Summary != nil && result.Summary.BatchID != "":
		return result.Summary.BatchID
	default:
		return "batch"
	}
}
