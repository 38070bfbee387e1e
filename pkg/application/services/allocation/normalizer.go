package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// SourceNone marks summaries built from a response with no line records
const SourceNone = "none"

// record is one line-like object from an allocation response
type record map[string]interface{}

// lineSource is the decoded form of an allocation response: the records
// that were found and the strategy that found them.
type lineSource struct {
	Strategy string
	Records  []record
}

// strategy locates line records inside a response
type strategy struct {
	name   string
	locate func(response map[string]interface{}) []record
}

// strategies are tried in order; the first non-empty result wins
var strategies = []strategy{
	{name: "lines", locate: fieldStrategy("lines")},
	{name: "lines_materials", locate: fieldStrategy("lines_materials")},
	{name: "array_scan", locate: scanArrays},
}

var (
	nameFields       = []string{"material_name", "name", "product_name", "material", "description"}
	idFields         = []string{"material_id", "product_id", "id"}
	requiredFields   = []string{"required_qty", "required", "required_total"}
	allocatedFields  = []string{"allocated_qty", "allocated"}
	shortfallFields  = []string{"shortfall_qty", "shortfall"}
	clientFlagFields = []string{"client_inventory_id", "client_inventory", "client_material_id"}
)

// Normalize converts an allocation procedure response of any accepted shape
// into an AllocationSummary. Totals and status are always recomputed from
// the lines; the upstream status is kept only as a hint.
func Normalize(batchID string, response map[string]interface{}) *entities.AllocationSummary {
	source := decode(response)

	lines := make([]entities.ShortfallLine, 0, len(source.Records))
	for _, rec := range source.Records {
		lines = append(lines, rec.toShortfallLine())
	}

	summary := entities.NewAllocationSummary(batchID, source.Strategy, lines)
	if hint, ok := response["status"].(string); ok {
		if status, known := entities.ParseStatus(hint); known {
			summary.UpstreamStatus = status.String()
		} else {
			summary.UpstreamStatus = hint
		}
	}
	return summary
}

// decode runs the strategies in order
func decode(response map[string]interface{}) lineSource {
	if response == nil {
		return lineSource{Strategy: SourceNone}
	}
	for _, s := range strategies {
		if records := s.locate(response); len(records) > 0 {
			return lineSource{Strategy: s.name, Records: records}
		}
	}
	return lineSource{Strategy: SourceNone}
}

// fieldStrategy reads records from a named array field
func fieldStrategy(field string) func(map[string]interface{}) []record {
	return func(response map[string]interface{}) []record {
		arr, ok := response[field].([]interface{})
		if !ok {
			return nil
		}
		return objects(arr, false)
	}
}

// scanArrays looks at every array-valued field, in key order, for objects
// that carry a name field.
func scanArrays(response map[string]interface{}) []record {
	keys := make([]string, 0, len(response))
	for k := range response {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		arr, ok := response[k].([]interface{})
		if !ok {
			continue
		}
		if records := objects(arr, true); len(records) > 0 {
			return records
		}
	}
	return nil
}

// objects keeps the object elements of an array, optionally only named ones
func objects(arr []interface{}, requireName bool) []record {
	var records []record
	for _, el := range arr {
		obj, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		rec := record(obj)
		if requireName && rec.name() == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// toShortfallLine coerces a record into a reconciled line. An explicit
// numeric shortfall is authoritative and allocated is derived from it; a
// shortfall that is not a number is ignored.
func (r record) toShortfallLine() entities.ShortfallLine {
	required := r.quantity(requiredFields)

	var line entities.ShortfallLine
	if explicit, ok := r.numeric(shortfallFields); ok {
		shortfall := entities.MinQuantity(explicit, required)
		line = entities.NewShortfallLine(r.kind(), r.id(), r.name(), required, required.Sub(shortfall))
	} else {
		line = entities.NewShortfallLine(r.kind(), r.id(), r.name(), required, r.quantity(allocatedFields))
	}

	line.IsClientMaterial = r.isClientMaterial()
	line.Suggestion = entities.ParseSuggestion(r.str("suggestion"))
	line.Category, _ = entities.ParseCategory(r.firstString("category", "material_category"))
	line.UOM = r.firstString("uom", "unit")
	return line
}

// kind reports whether the record describes a product line or a material line
func (r record) kind() entities.SubjectKind {
	if _, ok := r.lookup([]string{"material_id", "material_name"}); ok {
		return entities.SubjectMaterial
	}
	if _, ok := r.lookup([]string{"product_id", "product_name"}); ok {
		return entities.SubjectProduct
	}
	return entities.SubjectMaterial
}

func (r record) name() string {
	return r.firstString(nameFields...)
}

func (r record) id() string {
	for _, f := range idFields {
		switch v := r[f].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		case int, int64:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}

func (r record) isClientMaterial() bool {
	switch v := r["is_client_material"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	_, present := r.lookup(clientFlagFields)
	return present
}

// lookup returns the first non-null value among fields
func (r record) lookup(fields []string) (interface{}, bool) {
	for _, f := range fields {
		if v, ok := r[f]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r record) quantity(fields []string) decimal.Decimal {
	v, _ := r.lookup(fields)
	return entities.CoerceQuantity(v)
}

// numeric returns the first field holding a parseable number
func (r record) numeric(fields []string) (decimal.Decimal, bool) {
	for _, f := range fields {
		if d, ok := entities.ParseQuantity(r[f]); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

func (r record) str(field string) string {
	s, _ := r[field].(string)
	return strings.TrimSpace(s)
}

func (r record) firstString(fields ...string) string {
	for _, f := range fields {
		if s := r.str(f); s != "" {
			return s
		}
	}
	return ""
}
