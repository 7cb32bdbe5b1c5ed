package dataset

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadOptions controls how files are read into a Dataset.
type LoadOptions struct {
	// Delimiter for CSV. If 0, chosen from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// Loader reads one file format.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt LoadOptions) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadFile selects a loader by file name and reads the dataset.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// FromRecords infers column types from raw string cells. Short rows are
// padded with nulls and long rows truncated to the header width.
func FromRecords(name string, header []string, rows [][]string, opt LoadOptions) *Dataset {
	names := uniqueNames(header)
	ds := &Dataset{Name: name, Columns: make([]*Column, len(names)), SourceRows: len(rows)}
	cells := make([]string, len(rows))
	for j, n := range names {
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			} else {
				cells[i] = ""
			}
		}
		ds.Columns[j] = inferColumn(n, cells, opt)
	}
	return ds
}

// inferColumn picks numeric when every present cell parses as a number, bool
// when every present cell is true/false, otherwise text. A column with no
// present cells is numeric.
func inferColumn(name string, cells []string, opt LoadOptions) *Column {
	nums := make([]float64, len(cells))
	isNum, isBool := true, true
	for i, v := range cells {
		if IsNullToken(v) {
			nums[i] = math.NaN()
			continue
		}
		if isNum {
			if x, ok := parseNumeric(v, opt); ok {
				nums[i] = x
			} else {
				isNum = false
			}
		}
		if isBool {
			if _, ok := parseBool(v); !ok {
				isBool = false
			}
		}
		if !isNum && !isBool {
			break
		}
	}
	switch {
	case isNum:
		return NewNumeric(name, nums)
	case isBool:
		c := &Column{Name: name, Type: Bool, Bool: make([]bool, len(cells)), Valid: make([]bool, len(cells))}
		for i, v := range cells {
			if b, ok := parseBool(v); ok && !IsNullToken(v) {
				c.Bool[i] = b
				c.Valid[i] = true
			}
		}
		return c
	default:
		return NewText(name, cells)
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// uniqueNames trims header cells, names blank headers by position and
// suffixes repeats with ".1", ".2", ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		n := strings.TrimSpace(h)
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		base := n
		for {
			if _, dup := seen[n]; !dup {
				break
			}
			seen[base]++
			n = fmt.Sprintf("%s.%d", base, seen[base])
		}
		seen[n] = 0
		out[i] = n
	}
	return out
}

func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.HasSuffix(raw, "%") {
		raw = strings.TrimSuffix(raw, "%")
	}
	// Normalize spaces
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// Decide decimal separator
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	// Remove thousands separators (common: ',', '.', space) if they differ from decimal
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
