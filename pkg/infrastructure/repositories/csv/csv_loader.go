package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

// Catalog file names inside a catalog directory
const (
	MaterialsFile    = "materials.csv"
	FormulasFile     = "formulas.csv"
	FormulaItemsFile = "formula_items.csv"
	ProductsFile     = "products.csv"
)

var (
	materialsHeader    = []string{"material_id", "name", "category", "is_client_material"}
	formulasHeader     = []string{"formula_id", "name", "version"}
	formulaItemsHeader = []string{"item_id", "formula_id", "material_id", "qty_per_unit", "uom"}
	productsHeader     = []string{"product_id", "name", "formula_id", "formula_name"}
	ordersHeader       = []string{"line_id", "product_id", "product_name", "quantity"}
	stockHeader        = []string{"material_id", "lot_number", "location", "owner", "quantity", "receipt_date", "status"}
)

// Loader handles loading catalog, order and stock data from CSV files.
// Structural problems (missing file, wrong header, wrong column count) are
// errors; malformed quantities are zero-filled.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadCatalog loads the four catalog files from a directory
func (l *Loader) LoadCatalog(dir string) (services.Catalog, error) {
	var catalog services.Catalog
	var err error

	if catalog.Materials, err = l.LoadMaterials(filepath.Join(dir, MaterialsFile)); err != nil {
		return services.Catalog{}, err
	}
	if catalog.Formulas, err = l.LoadFormulas(filepath.Join(dir, FormulasFile)); err != nil {
		return services.Catalog{}, err
	}
	if catalog.Items, err = l.LoadFormulaItems(filepath.Join(dir, FormulaItemsFile)); err != nil {
		return services.Catalog{}, err
	}
	if catalog.Products, err = l.LoadProducts(filepath.Join(dir, ProductsFile)); err != nil {
		return services.Catalog{}, err
	}

	l.logger.Debug("catalog loaded",
		zap.String("dir", dir),
		zap.Int("materials", len(catalog.Materials)),
		zap.Int("formulas", len(catalog.Formulas)),
		zap.Int("items", len(catalog.Items)),
		zap.Int("products", len(catalog.Products)))
	return catalog, nil
}

// LoadMaterials loads the material master
func (l *Loader) LoadMaterials(filename string) ([]entities.Material, error) {
	records, err := readFile(filename, "materials", materialsHeader)
	if err != nil {
		return nil, err
	}

	materials := make([]entities.Material, 0, len(records))
	for i, record := range records {
		category, known := entities.ParseCategory(record[2])
		if !known {
			l.logger.Warn("unknown material category, treating as raw",
				zap.String("file", filename),
				zap.Int("row", i+2),
				zap.String("category", record[2]))
		}
		materials = append(materials, entities.Material{
			ID:               strings.TrimSpace(record[0]),
			Name:             strings.TrimSpace(record[1]),
			Category:         category,
			IsClientMaterial: parseBool(record[3]),
		})
	}
	return materials, nil
}

// LoadFormulas loads formula headers. An empty version means 1.
func (l *Loader) LoadFormulas(filename string) ([]entities.Formula, error) {
	records, err := readFile(filename, "formulas", formulasHeader)
	if err != nil {
		return nil, err
	}

	formulas := make([]entities.Formula, 0, len(records))
	for i, record := range records {
		version := 1
		if v := strings.TrimSpace(record[2]); v != "" {
			version, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("formulas CSV row %d: invalid version: %s", i+2, v)
			}
		}
		formulas = append(formulas, entities.Formula{
			ID:      strings.TrimSpace(record[0]),
			Name:    strings.TrimSpace(record[1]),
			Version: version,
		})
	}
	return formulas, nil
}

// LoadFormulaItems loads formula items. Items reference materials by id and
// are annotated when loaded into a catalog repository.
func (l *Loader) LoadFormulaItems(filename string) ([]entities.FormulaItem, error) {
	records, err := readFile(filename, "formula items", formulaItemsHeader)
	if err != nil {
		return nil, err
	}

	items := make([]entities.FormulaItem, 0, len(records))
	for i, record := range records {
		item, err := entities.NewFormulaItem(
			strings.TrimSpace(record[0]),
			strings.TrimSpace(record[1]),
			entities.Material{ID: strings.TrimSpace(record[2])},
			record[3],
			strings.TrimSpace(record[4]),
		)
		if err != nil {
			return nil, fmt.Errorf("formula items CSV row %d: %w", i+2, err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// LoadProducts loads finished goods and their formula links
func (l *Loader) LoadProducts(filename string) ([]entities.Product, error) {
	records, err := readFile(filename, "products", productsHeader)
	if err != nil {
		return nil, err
	}

	products := make([]entities.Product, 0, len(records))
	for _, record := range records {
		products = append(products, entities.Product{
			ID:          strings.TrimSpace(record[0]),
			Name:        strings.TrimSpace(record[1]),
			FormulaID:   strings.TrimSpace(record[2]),
			FormulaName: strings.TrimSpace(record[3]),
		})
	}
	return products, nil
}

// LoadOrders loads the order lines of a batch
func (l *Loader) LoadOrders(filename string) ([]entities.OrderLine, error) {
	records, err := readFile(filename, "orders", ordersHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]entities.OrderLine, 0, len(records))
	for i, record := range records {
		id := strings.TrimSpace(record[0])
		if id == "" {
			id = fmt.Sprintf("L%d", i+1)
		}
		lines = append(lines, entities.NewOrderLine(id, record[1], record[2], record[3]))
	}
	return lines, nil
}

// LoadStock loads stock lots
func (l *Loader) LoadStock(filename string) ([]*entities.StockLot, error) {
	records, err := readFile(filename, "stock", stockHeader)
	if err != nil {
		return nil, err
	}

	lots := make([]*entities.StockLot, 0, len(records))
	for i, record := range records {
		receiptDate, err := time.Parse("2006-01-02", strings.TrimSpace(record[5]))
		if err != nil {
			return nil, fmt.Errorf("invalid receipt_date format in row %d: %s (expected YYYY-MM-DD)", i+2, record[5])
		}

		owner, err := entities.ParseStockOwner(record[3])
		if err != nil {
			return nil, fmt.Errorf("invalid owner in row %d: %w", i+2, err)
		}

		status, err := entities.ParseInventoryStatus(record[6])
		if err != nil {
			return nil, fmt.Errorf("invalid status in row %d: %w", i+2, err)
		}

		lot, err := entities.NewStockLot(
			strings.TrimSpace(record[0]),
			strings.TrimSpace(record[1]),
			strings.TrimSpace(record[2]),
			owner,
			entities.CoerceQuantity(record[4]),
			receiptDate,
			status,
		)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// Helper functions for parsing CSV records

func readFile(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	return readRecords(file, kind, expectedHeader)
}

// readRecords validates the header and column counts and returns the data rows
func readRecords(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		name := strings.TrimPrefix(actual[i], "\ufeff")
		if strings.ToLower(strings.TrimSpace(name)) != col {
			return false
		}
	}

	return true
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
