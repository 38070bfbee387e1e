package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
)

// Material ids used by the preserves scenario
const (
	Sugar     = "M-SUGAR"
	Pectin    = "M-PECTIN"
	ClientOil = "M-CLIENT-OIL"
	Jar       = "M-JAR"
	Lid       = "M-LID"
)

// mustCreateFormulaItem is a helper for tests - panics on validation error
func mustCreateFormulaItem(id, formulaID string, material entities.Material, qtyPerUnit string, uom string) entities.FormulaItem {
	item, err := entities.NewFormulaItem(id, formulaID, material, qtyPerUnit, uom)
	if err != nil {
		panic(err)
	}
	return *item
}

// mustCreateStockLot is a helper for tests - panics on validation error
func mustCreateStockLot(materialID, lotNumber string, owner entities.StockOwner, qty int64, received time.Time) *entities.StockLot {
	lot, err := entities.NewStockLot(materialID, lotNumber, "PLANT-1", owner, decimal.NewFromInt(qty), received, entities.Available)
	if err != nil {
		panic(err)
	}
	return lot
}

// Materials returns the material master of the preserves scenario
func Materials() []entities.Material {
	return []entities.Material{
		{ID: Sugar, Name: "Cane Sugar", Category: entities.CategoryRaw},
		{ID: Pectin, Name: "Pectin", Category: entities.CategoryRaw},
		{ID: ClientOil, Name: "Client Sunflower Oil", Category: entities.CategoryRaw, IsClientMaterial: true},
		{ID: Jar, Name: "Glass Jar 250ml", Category: entities.CategoryPackaging},
		{ID: Lid, Name: "Twist Lid", Category: entities.CategoryPackaging},
	}
}

func material(id string) entities.Material {
	for _, m := range Materials() {
		if m.ID == id {
			return m
		}
	}
	panic("unknown material " + id)
}

// BuildPreservesCatalog builds a catalog covering every resolution path:
//   - P-JAM links F-JAM directly
//   - P-RELISH has no link; two "Tomato Relish" formulas exist and v2 wins
//   - P-BROKEN links a formula that does not exist and has no name match
//   - P-EMPTY links a formula with no items
func BuildPreservesCatalog() *memory.CatalogRepository {
	repo := memory.NewCatalogRepository(8, 16)

	for _, m := range Materials() {
		repo.AddMaterial(m)
	}

	repo.AddFormula(entities.Formula{ID: "F-JAM", Name: "Strawberry Jam", Version: 1})
	repo.AddFormula(entities.Formula{ID: "F-RELISH-1", Name: "Tomato Relish", Version: 1})
	repo.AddFormula(entities.Formula{ID: "F-RELISH-2", Name: "Tomato Relish", Version: 2})
	repo.AddFormula(entities.Formula{ID: "F-EMPTY", Name: "Placeholder", Version: 1})

	repo.AddProduct(entities.Product{ID: "P-JAM", Name: "Strawberry Jam 250g", FormulaID: "F-JAM"})
	repo.AddProduct(entities.Product{ID: "P-RELISH", Name: "Tomato Relish"})
	repo.AddProduct(entities.Product{ID: "P-BROKEN", Name: "Discontinued Chutney", FormulaID: "F-GONE"})
	repo.AddProduct(entities.Product{ID: "P-EMPTY", Name: "Seasonal Special", FormulaID: "F-EMPTY"})

	items := []entities.FormulaItem{
		mustCreateFormulaItem("FI-1", "F-JAM", material(Sugar), "2", "kg"),
		mustCreateFormulaItem("FI-2", "F-JAM", material(Pectin), "0.05", "kg"),
		mustCreateFormulaItem("FI-3", "F-JAM", material(Jar), "1", "ea"),
		mustCreateFormulaItem("FI-4", "F-JAM", material(Lid), "1", "ea"),
		mustCreateFormulaItem("FI-5", "F-RELISH-1", material(Sugar), "3", "kg"),
		mustCreateFormulaItem("FI-6", "F-RELISH-2", material(Sugar), "1", "kg"),
		mustCreateFormulaItem("FI-7", "F-RELISH-2", material(ClientOil), "0.5", "l"),
		mustCreateFormulaItem("FI-8", "F-RELISH-2", material(Jar), "1", "ea"),
	}
	for _, item := range items {
		repo.AddFormulaItem(item)
	}

	return repo
}

// BuildPreservesStock builds stock where sugar and client oil run short
func BuildPreservesStock() *memory.StockRepository {
	repo := memory.NewStockRepository()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	lots := []*entities.StockLot{
		mustCreateStockLot(Sugar, "SUG-001", entities.OwnerInternal, 6, day),
		mustCreateStockLot(Sugar, "SUG-002", entities.OwnerInternal, 4, day.AddDate(0, 0, 3)),
		mustCreateStockLot(Pectin, "PEC-001", entities.OwnerInternal, 5, day),
		mustCreateStockLot(ClientOil, "OIL-001", entities.OwnerClient, 1, day),
		// internal oil must never cover the client requirement
		mustCreateStockLot(ClientOil, "OIL-INT", entities.OwnerInternal, 100, day),
		mustCreateStockLot(Jar, "JAR-001", entities.OwnerInternal, 40, day),
		mustCreateStockLot(Lid, "LID-001", entities.OwnerInternal, 40, day),
	}
	if err := repo.LoadStockLots(lots); err != nil {
		panic(err)
	}

	return repo
}

// PreservesOrder is an order whose jam and relish lines both need sugar:
// 10 jars of jam at 2 kg and 5 jars of relish at 1 kg make 25 kg.
func PreservesOrder() []entities.OrderLine {
	return []entities.OrderLine{
		entities.NewOrderLine("L1", "P-JAM", "Strawberry Jam 250g", 10),
		entities.NewOrderLine("L2", "P-RELISH", "Tomato Relish", 5),
	}
}
