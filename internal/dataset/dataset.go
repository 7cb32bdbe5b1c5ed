// Package dataset holds the in-memory tabular model analysed by the health
// pipeline, plus loaders for CSV, TSV and XLSX files.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the logical storage type of a column.
type Type int

const (
	Text Type = iota
	Numeric
	Datetime
	Bool
)

func (t Type) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Datetime:
		return "datetime"
	case Bool:
		return "bool"
	default:
		return "text"
	}
}

// Column is a named sequence of values of one logical type. Only the slice
// matching Type is populated; Valid[i] is false for a null cell.
type Column struct {
	Name  string
	Type  Type
	Num   []float64
	Text  []string
	Time  []time.Time
	Bool  []bool
	Valid []bool
}

// NewNumeric builds a numeric column. NaN values are stored as nulls.
func NewNumeric(name string, vals []float64) *Column {
	c := &Column{Name: name, Type: Numeric, Num: make([]float64, len(vals)), Valid: make([]bool, len(vals))}
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		c.Num[i] = v
		c.Valid[i] = true
	}
	return c
}

// NewText builds a text column. Cells matching a null token are stored as nulls.
func NewText(name string, vals []string) *Column {
	c := &Column{Name: name, Type: Text, Text: make([]string, len(vals)), Valid: make([]bool, len(vals))}
	for i, v := range vals {
		if IsNullToken(v) {
			continue
		}
		c.Text[i] = v
		c.Valid[i] = true
	}
	return c
}

// NewDatetime builds a datetime column. Zero times are stored as nulls.
func NewDatetime(name string, vals []time.Time) *Column {
	c := &Column{Name: name, Type: Datetime, Time: make([]time.Time, len(vals)), Valid: make([]bool, len(vals))}
	for i, v := range vals {
		if v.IsZero() {
			continue
		}
		c.Time[i] = v
		c.Valid[i] = true
	}
	return c
}

// NewBool builds a boolean column with every cell present.
func NewBool(name string, vals []bool) *Column {
	c := &Column{Name: name, Type: Bool, Bool: append([]bool(nil), vals...), Valid: make([]bool, len(vals))}
	for i := range c.Valid {
		c.Valid[i] = true
	}
	return c
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Valid) }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return !c.Valid[i] }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Values returns the non-null numeric values in row order.
func (c *Column) Values() []float64 {
	if c.Type != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.Num))
	for i, v := range c.Num {
		if c.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns the non-null cells rendered as strings in row order.
func (c *Column) Strings() []string {
	out := make([]string, 0, c.Len())
	for i := range c.Valid {
		if c.Valid[i] {
			out = append(out, c.Cell(i))
		}
	}
	return out
}

// Cell renders row i as a canonical string; nulls render as "".
func (c *Column) Cell(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Type {
	case Numeric:
		return strconv.FormatFloat(c.Num[i], 'g', -1, 64)
	case Datetime:
		return c.Time[i].Format(time.RFC3339Nano)
	case Bool:
		return strconv.FormatBool(c.Bool[i])
	default:
		return c.Text[i]
	}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	return c.Take(nil)
}

// Take returns a copy holding only the given rows, in the given order.
// A nil rows slice copies every row.
func (c *Column) Take(rows []int) *Column {
	if rows == nil {
		rows = make([]int, c.Len())
		for i := range rows {
			rows[i] = i
		}
	}
	out := &Column{Name: c.Name, Type: c.Type, Valid: make([]bool, len(rows))}
	switch c.Type {
	case Numeric:
		out.Num = make([]float64, len(rows))
	case Datetime:
		out.Time = make([]time.Time, len(rows))
	case Bool:
		out.Bool = make([]bool, len(rows))
	default:
		out.Text = make([]string, len(rows))
	}
	for j, i := range rows {
		out.Valid[j] = c.Valid[i]
		switch c.Type {
		case Numeric:
			out.Num[j] = c.Num[i]
		case Datetime:
			out.Time[j] = c.Time[i]
		case Bool:
			out.Bool[j] = c.Bool[i]
		default:
			out.Text[j] = c.Text[i]
		}
	}
	return out
}

// Dataset is an ordered collection of equally long columns.
type Dataset struct {
	Name    string
	Columns []*Column
	// SourceRows is the number of data rows seen in the source file; it is
	// larger than Rows() when loading was capped by MaxRows.
	SourceRows int
}

// New validates that columns are equally long and uniquely named.
func New(name string, cols ...*Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("dataset %q: nil column", name)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("dataset %q: duplicate column %q", name, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("dataset %q: column %q has %d rows, want %d", name, c.Name, c.Len(), cols[0].Len())
		}
	}
	ds := &Dataset{Name: name, Columns: cols}
	ds.SourceRows = ds.Rows()
	return ds, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, cols ...*Column) *Dataset {
	ds, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Column returns the named column or nil.
func (d *Dataset) Column(name string) *Column {
	for _, c := range d.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	return d.Take(nil)
}

// Take returns a copy with only the given rows.
func (d *Dataset) Take(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns)), SourceRows: d.SourceRows}
	for i, c := range d.Columns {
		out.Columns[i] = c.Take(rows)
	}
	return out
}

// RowKey renders a row as a single comparable string. Nulls compare equal to
// each other and unequal to every present value.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j, c := range d.Columns {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		if c.IsNull(i) {
			b.WriteByte(0x00)
			continue
		}
		b.WriteString(c.Cell(i))
	}
	return b.String()
}

var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {},
	"None": {}, "#N/A": {}, "<NA>": {}, "-NaN": {}, "-nan": {},
}

// IsNullToken reports whether a raw cell denotes a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}
