package ingest

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domain "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/domain/traffic"
)

// RowError locates one validation failure inside a vendor export.
// Row is the 1-based spreadsheet row number (header is row 1).
type RowError struct {
	Row    int
	Field  string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
}

// Batch carries the typed rows of one validated chunk. Only the slice
// matching the loaded entity is populated.
type Batch struct {
	Counters    []domain.Counter
	Datastreams []domain.Datastream
	Counts      []domain.Count
}

func (b Batch) Len() int {
	return len(b.Counters) + len(b.Datastreams) + len(b.Counts)
}

// rowValidator coerces raw cells per the entity field schema and validates
// the assembled rows. Coercion mirrors the vendor files' conventions:
// sentinel strings for missing values, timestamps without an offset read
// as UTC and converted into the configured zone.
type rowValidator struct {
	validate *validator.Validate
	loc      *time.Location
}

func newRowValidator(loc *time.Location) *rowValidator {
	v := validator.New()
	// Report json field names in validation errors, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &rowValidator{
		validate: v,
		loc:      loc,
	}
}

// normalizeHeader lower-cases column names and replaces spaces with
// underscores so vendor spelling variants land on the schema names.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.ToLower(col))
		out[i] = strings.ReplaceAll(col, " ", "_")
	}
	return out
}

// build coerces and validates every record. All row errors are collected
// so a malformed file reports everything wrong with it in one pass.
func (rv *rowValidator) build(entity domain.Entity, columns []string, records [][]string, rowBase int) (Batch, []RowError) {
	schema := entity.Schema()

	colIndex := make(map[string]int, len(columns))
	for i, name := range columns {
		colIndex[name] = i
	}

	var (
		batch   Batch
		rowErrs []RowError
	)

	for i, record := range records {
		rowNum := rowBase + i

		values, errsForRow := rv.coerceRow(schema, colIndex, record, rowNum)
		if len(errsForRow) > 0 {
			rowErrs = append(rowErrs, errsForRow...)
			continue
		}

		switch entity {
		case domain.EntityCounters:
			row, errsForRow := rv.assembleCounter(values, rowNum)
			if len(errsForRow) > 0 {
				rowErrs = append(rowErrs, errsForRow...)
				continue
			}
			batch.Counters = append(batch.Counters, row)
		case domain.EntityDatastreams:
			row, errsForRow := rv.assembleDatastream(values, rowNum)
			if len(errsForRow) > 0 {
				rowErrs = append(rowErrs, errsForRow...)
				continue
			}
			batch.Datastreams = append(batch.Datastreams, row)
		case domain.EntityCounts:
			row, errsForRow := rv.assembleCount(values, rowNum)
			if len(errsForRow) > 0 {
				rowErrs = append(rowErrs, errsForRow...)
				continue
			}
			batch.Counts = append(batch.Counts, row)
		}
	}

	return batch, rowErrs
}

// rowValues holds one record after per-kind coercion, keyed by schema
// field name. Absent optional values are stored as nil pointers.
type rowValues struct {
	strings map[string]*string
	ints    map[string]*int64
	floats  map[string]*float64
	times   map[string]*time.Time
}

func (rv *rowValidator) coerceRow(schema []domain.FieldSpec, colIndex map[string]int, record []string, rowNum int) (rowValues, []RowError) {
	values := rowValues{
		strings: make(map[string]*string),
		ints:    make(map[string]*int64),
		floats:  make(map[string]*float64),
		times:   make(map[string]*time.Time),
	}

	var rowErrs []RowError
	for _, spec := range schema {
		raw := ""
		if idx, ok := colIndex[spec.Name]; ok && idx < len(record) {
			raw = record[idx]
		}

		switch spec.Kind {
		case domain.KindString:
			values.strings[spec.Name] = coerceString(raw, spec.Required)
		case domain.KindInt:
			v, err := coerceInt(raw)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: spec.Name, Reason: err.Error()})
				continue
			}
			values.ints[spec.Name] = v
		case domain.KindFloat:
			v, err := coerceFloat(raw)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: spec.Name, Reason: err.Error()})
				continue
			}
			values.floats[spec.Name] = v
		case domain.KindTime:
			values.times[spec.Name] = rv.coerceTime(raw)
		}

		if spec.Required {
			if missing := values.missing(spec); missing {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Field: spec.Name, Reason: "required value is missing"})
			}
		}
	}

	return values, rowErrs
}

func (v rowValues) missing(spec domain.FieldSpec) bool {
	switch spec.Kind {
	case domain.KindString:
		// Required strings degrade to "" like the vendor files expect;
		// never missing.
		return false
	case domain.KindInt:
		return v.ints[spec.Name] == nil
	case domain.KindFloat:
		return v.floats[spec.Name] == nil
	case domain.KindTime:
		return v.times[spec.Name] == nil
	default:
		return false
	}
}

// naSentinels are the spellings pandas-era exports use for "no value".
var naSentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
	"na":   {},
	"n/a":  {},
}

func isNA(raw string) bool {
	_, ok := naSentinels[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

func coerceString(raw string, required bool) *string {
	trimmed := strings.TrimSpace(raw)
	if isNA(trimmed) {
		if required {
			empty := ""
			return &empty
		}
		return nil
	}
	return &trimmed
}

func coerceInt(raw string) (*int64, error) {
	trimmed := strings.TrimSpace(raw)
	if isNA(trimmed) || isInf(trimmed) {
		return nil, nil
	}

	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return &n, nil
	}

	// Spreadsheet tools routinely render integer columns as floats
	// ("150.0"); accept them when the value is integral.
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	n := int64(f)
	return &n, nil
}

func coerceFloat(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if isNA(trimmed) || isInf(trimmed) {
		return nil, nil
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return &f, nil
}

func isInf(trimmed string) bool {
	switch strings.ToLower(trimmed) {
	case "inf", "+inf", "-inf", "infinity", "+infinity", "-infinity":
		return true
	default:
		return false
	}
}

// timeLayouts are tried in order. Layouts without an offset are read as
// UTC, matching how the upstream exports serialize timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (rv *rowValidator) coerceTime(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if isNA(trimmed) {
		return nil
	}

	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		local := ts.In(rv.loc)
		return &local
	}
	return nil
}

func (rv *rowValidator) assembleCounter(values rowValues, rowNum int) (domain.Counter, []RowError) {
	row := domain.Counter{
		CounterID:    derefInt(values.ints["counter_id"]),
		CounterCode:  derefString(values.strings["counter_code"]),
		CounterName:  derefString(values.strings["counter_name"]),
		Vendor:       derefString(values.strings["vendor"]),
		VendorSiteID: derefString(values.strings["vendor_site_id"]),
		Latitude:     derefFloat(values.floats["latitude"]),
		Longitude:    derefFloat(values.floats["longitude"]),
		CounterNotes: values.strings["counter_notes"],
	}
	return row, rv.check(row, rowNum)
}

func (rv *rowValidator) assembleDatastream(values rowValues, rowNum int) (domain.Datastream, []RowError) {
	row := domain.Datastream{
		DatastreamID:        derefInt(values.ints["datastream_id"]),
		CounterID:           derefInt(values.ints["counter_id"]),
		DatastreamType:      domain.DatastreamType(strings.ToUpper(derefString(values.strings["datastream_type"]))),
		DatastreamName:      derefString(values.strings["datastream_name"]),
		DatastreamDirection: domain.DatastreamDirection(strings.ToUpper(derefString(values.strings["datastream_direction"]))),
		DatastreamNotes:     values.strings["datastream_notes"],
	}
	return row, rv.check(row, rowNum)
}

func (rv *rowValidator) assembleCount(values rowValues, rowNum int) (domain.Count, []RowError) {
	row := domain.Count{
		CountID:      derefInt(values.ints["count_id"]),
		DatastreamID: derefInt(values.ints["datastream_id"]),
		DateTime:     derefTime(values.times["date_time"]),
		RawCount:     values.ints["raw_count"],
		MaxDay:       values.ints["maxday"],
		MaxHour:      values.ints["maxhour"],
		Gap:          values.ints["gap"],
		Zero:         values.ints["zero"],
		Stat:         values.ints["stat"],
		CleanedCount: values.floats["cleaned_count"],
	}
	return row, rv.check(row, rowNum)
}

func (rv *rowValidator) check(row any, rowNum int) []RowError {
	err := rv.validate.Struct(row)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []RowError{{Row: rowNum, Field: "-", Reason: err.Error()}}
	}

	out := make([]RowError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reason := fmt.Sprintf("failed %q validation", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed %q validation (param %s)", fe.Tag(), fe.Param())
		}
		out = append(out, RowError{Row: rowNum, Field: fe.Field(), Reason: reason})
	}
	return out
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefTime(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
