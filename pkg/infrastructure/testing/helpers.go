package testing

import (
	"fmt"
	"os"
	"path/filepath"
)

// Preserves scenario as CSV files. It mirrors the in-memory builders used
// by the service tests: 10 jam + 5 relish need 25 kg of sugar.
var (
	MaterialsCSV = `material_id,name,category,is_client_material
M-SUGAR,Cane Sugar,raw,false
M-PECTIN,Pectin,Raw Material,false
M-CLIENT-OIL,Client Sunflower Oil,raw,true
M-JAR,Glass Jar 250ml,Packaging,false
M-LID,Twist Lid,packaging,false
M-GLITTER,Edible Glitter,sparkly,false
`

	FormulasCSV = `formula_id,name,version
F-JAM,Strawberry Jam,1
F-RELISH-1,Tomato Relish,1
F-RELISH-2,Tomato Relish,2
F-EMPTY,Placeholder,
`

	FormulaItemsCSV = `item_id,formula_id,material_id,qty_per_unit,uom
FI-1,F-JAM,M-SUGAR,2,kg
FI-2,F-JAM,M-PECTIN,0.05,kg
FI-3,F-JAM,M-JAR,1,ea
FI-4,F-JAM,M-LID,1,ea
FI-5,F-RELISH-1,M-SUGAR,3,kg
FI-6,F-RELISH-2,M-SUGAR,1,kg
FI-7,F-RELISH-2,M-CLIENT-OIL,0.5,l
FI-8,F-RELISH-2,M-JAR,1,ea
`

	ProductsCSV = `product_id,name,formula_id,formula_name
P-JAM,Strawberry Jam 250g,F-JAM,
P-RELISH,Tomato Relish,,
P-BROKEN,Discontinued Chutney,F-GONE,
P-EMPTY,Seasonal Special,F-EMPTY,
`

	OrdersCSV = `line_id,product_id,product_name,quantity
L1,P-JAM,Strawberry Jam 250g,10
L2,,Tomato Relish,5
L3,P-BROKEN,Discontinued Chutney,4
`

	StockCSV = `material_id,lot_number,location,owner,quantity,receipt_date,status
M-SUGAR,SUG-001,PLANT-1,internal,6,2025-03-01,Available
M-SUGAR,SUG-002,PLANT-1,internal,4,2025-03-04,Available
M-SUGAR,SUG-Q,PLANT-1,internal,50,2025-03-04,Quarantine
M-PECTIN,PEC-001,PLANT-1,internal,5,2025-03-01,Available
M-CLIENT-OIL,OIL-001,PLANT-1,client,1,2025-03-01,Available
M-CLIENT-OIL,OIL-INT,PLANT-1,internal,100,2025-03-01,Available
M-JAR,JAR-001,PLANT-1,internal,40,2025-03-01,Available
M-LID,LID-001,PLANT-1,internal,40,2025-03-01,Available
`
)

// WriteCatalogDir writes the four catalog files into dir
func WriteCatalogDir(dir string) error {
	files := map[string]string{
		"materials.csv":     MaterialsCSV,
		"formulas.csv":      FormulasCSV,
		"formula_items.csv": FormulaItemsCSV,
		"products.csv":      ProductsCSV,
	}
	for name, content := range files {
		if err := WriteFile(filepath.Join(dir, name), content); err != nil {
			return err
		}
	}
	return nil
}

// WriteScenario writes the catalog plus orders.csv and stock.csv and
// returns the paths of the order and stock files
func WriteScenario(dir string) (orders, stock string, err error) {
	if err := WriteCatalogDir(dir); err != nil {
		return "", "", err
	}
	orders = filepath.Join(dir, "orders.csv")
	stock = filepath.Join(dir, "stock.csv")
	if err := WriteFile(orders, OrdersCSV); err != nil {
		return "", "", err
	}
	if err := WriteFile(stock, StockCSV); err != nil {
		return "", "", err
	}
	return orders, stock, nil
}

// WriteFile writes content, creating parent directories
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
