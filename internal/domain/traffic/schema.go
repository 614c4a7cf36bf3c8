package traffic

import "fmt"

// FieldKind selects the coercion applied to a raw spreadsheet column.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
	KindTime
)

// FieldSpec declares one column of a vendor export: its normalized header
// name, the coercion kind, and whether a value must survive coercion.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// Entity names one of the three loadable tables.
type Entity string

const (
	EntityCounters    Entity = "counters"
	EntityDatastreams Entity = "datastreams"
	EntityCounts      Entity = "counts"
)

func ParseEntity(s string) (Entity, error) {
	switch Entity(s) {
	case EntityCounters, EntityDatastreams, EntityCounts:
		return Entity(s), nil
	default:
		return "", fmt.Errorf("unknown entity %q (expected counters, datastreams or counts)", s)
	}
}

// Table returns the SQL table fed by this entity's exports.
func (e Entity) Table() string { return string(e) }

// Schema returns the ordered field specs for this entity's exports.
func (e Entity) Schema() []FieldSpec {
	switch e {
	case EntityCounters:
		return []FieldSpec{
			{Name: "counter_id", Kind: KindInt, Required: true},
			{Name: "counter_code", Kind: KindString, Required: true},
			{Name: "counter_name", Kind: KindString, Required: true},
			{Name: "vendor", Kind: KindString, Required: true},
			{Name: "vendor_site_id", Kind: KindString, Required: true},
			{Name: "latitude", Kind: KindFloat, Required: true},
			{Name: "longitude", Kind: KindFloat, Required: true},
			{Name: "counter_notes", Kind: KindString},
		}
	case EntityDatastreams:
		return []FieldSpec{
			{Name: "datastream_id", Kind: KindInt, Required: true},
			{Name: "counter_id", Kind: KindInt, Required: true},
			{Name: "datastream_type", Kind: KindString, Required: true},
			{Name: "datastream_name", Kind: KindString, Required: true},
			{Name: "datastream_direction", Kind: KindString, Required: true},
			{Name: "datastream_notes", Kind: KindString},
		}
	case EntityCounts:
		return []FieldSpec{
			{Name: "count_id", Kind: KindInt, Required: true},
			{Name: "datastream_id", Kind: KindInt, Required: true},
			{Name: "date_time", Kind: KindTime, Required: true},
			{Name: "raw_count", Kind: KindInt},
			{Name: "maxday", Kind: KindInt},
			{Name: "maxhour", Kind: KindInt},
			{Name: "gap", Kind: KindInt},
			{Name: "zero", Kind: KindInt},
			{Name: "stat", Kind: KindInt},
			{Name: "cleaned_count", Kind: KindFloat},
		}
	default:
		return nil
	}
}
