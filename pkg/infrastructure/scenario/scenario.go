// Package scenario loads a complete calculation scenario (catalog, order
// batch and stock) from a single YAML document.
package scenario

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
)

// Scenario is a decoded scenario file
type Scenario struct {
	BatchID string
	Catalog services.Catalog
	Orders  []entities.OrderLine
	Stock   []*entities.StockLot
}

type document struct {
	BatchID   string             `yaml:"batch_id"`
	Materials []materialEntry    `yaml:"materials"`
	Formulas  []formulaEntry     `yaml:"formulas"`
	Products  []entities.Product `yaml:"products"`
	Orders    []orderEntry       `yaml:"orders"`
	Stock     []stockEntry       `yaml:"stock"`
}

type materialEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Client   bool   `yaml:"client"`
}

type formulaEntry struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Version int         `yaml:"version"`
	Items   []itemEntry `yaml:"items"`
}

type itemEntry struct {
	ID         string      `yaml:"id"`
	Material   string      `yaml:"material"`
	QtyPerUnit interface{} `yaml:"qty_per_unit"`
	UOM        string      `yaml:"uom"`
}

type orderEntry struct {
	ID          string      `yaml:"id"`
	ProductID   string      `yaml:"product_id"`
	ProductName string      `yaml:"product_name"`
	Quantity    interface{} `yaml:"quantity"`
}

type stockEntry struct {
	Material string      `yaml:"material"`
	Lot      string      `yaml:"lot"`
	Location string      `yaml:"location"`
	Owner    string      `yaml:"owner"`
	Quantity interface{} `yaml:"quantity"`
	Received string      `yaml:"received"`
	Status   string      `yaml:"status"`
}

// Load reads and decodes a scenario file
func Load(path string, logger *zap.Logger) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	s, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario document. Quantities follow the zero-fill policy;
// unknown material categories are logged and treated as raw.
func Parse(data []byte, logger *zap.Logger) (*Scenario, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	s := &Scenario{BatchID: doc.BatchID, Orders: make([]entities.OrderLine, 0, len(doc.Orders))}
	if s.BatchID == "" {
		s.BatchID = "scenario"
	}

	for _, m := range doc.Materials {
		category, known := entities.ParseCategory(m.Category)
		if !known {
			logger.Warn("unknown material category, treating as raw",
				zap.String("material", m.ID),
				zap.String("category", m.Category))
		}
		s.Catalog.Materials = append(s.Catalog.Materials, entities.Material{
			ID:               m.ID,
			Name:             m.Name,
			Category:         category,
			IsClientMaterial: m.Client,
		})
	}

	for _, f := range doc.Formulas {
		if f.ID == "" {
			return nil, fmt.Errorf("formula %q has no id", f.Name)
		}
		version := f.Version
		if version == 0 {
			version = 1
		}
		s.Catalog.Formulas = append(s.Catalog.Formulas, entities.Formula{ID: f.ID, Name: f.Name, Version: version})

		for i, it := range f.Items {
			id := it.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", f.ID, i+1)
			}
			item, err := entities.NewFormulaItem(id, f.ID, entities.Material{ID: it.Material}, it.QtyPerUnit, it.UOM)
			if err != nil {
				return nil, fmt.Errorf("formula %s item %d: %w", f.ID, i+1, err)
			}
			s.Catalog.Items = append(s.Catalog.Items, *item)
		}
	}

	s.Catalog.Products = doc.Products

	for i, o := range doc.Orders {
		id := o.ID
		if id == "" {
			id = fmt.Sprintf("L%d", i+1)
		}
		s.Orders = append(s.Orders, entities.NewOrderLine(id, o.ProductID, o.ProductName, o.Quantity))
	}

	for i, st := range doc.Stock {
		lot, err := st.toLot()
		if err != nil {
			return nil, fmt.Errorf("stock entry %d: %w", i+1, err)
		}
		s.Stock = append(s.Stock, lot)
	}

	return s, nil
}

func (e stockEntry) toLot() (*entities.StockLot, error) {
	owner, err := entities.ParseStockOwner(e.Owner)
	if err != nil {
		return nil, err
	}
	status, err := entities.ParseInventoryStatus(e.Status)
	if err != nil {
		return nil, err
	}

	var received time.Time
	if v := strings.TrimSpace(e.Received); v != "" {
		received, err = time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid received date %q (expected YYYY-MM-DD)", e.Received)
		}
	}

	return entities.NewStockLot(e.Material, e.Lot, e.Location, owner, entities.CoerceQuantity(e.Quantity), received, status)
}

// Repositories loads the scenario into fresh in-memory repositories
func (s *Scenario) Repositories() (*memory.CatalogRepository, *memory.StockRepository, error) {
	catalog := memory.NewCatalogRepository(len(s.Catalog.Formulas), len(s.Catalog.Items))
	if err := catalog.LoadCatalog(s.Catalog); err != nil {
		return nil, nil, fmt.Errorf("failed to load scenario catalog: %w", err)
	}

	stock := memory.NewStockRepository()
	if err := stock.LoadStockLots(s.Stock); err != nil {
		return nil, nil, fmt.Errorf("failed to load scenario stock: %w", err)
	}

	return catalog, stock, nil
}
