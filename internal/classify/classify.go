// Package classify assigns every dataset column to exactly one analysis
// kind: numeric, categorical, datetime or identifier.
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
)

// Kind is the analysis role of a column.
type Kind string

const (
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
	Datetime    Kind = "datetime"
	Identifier  Kind = "identifier"
)

const (
	dateSampleSize     = 10
	dateMatchRatio     = 0.8
	identifierMinRows  = 50
	identifierUniqueFr = 0.9
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05",
	"2006/01/02", "01/02/2006", "02/01/2006", "01/02/2006 15:04:05", "01/02/2006 15:04",
	"1/2/2006 15:04:05", "1/2/2006 15:04",
}

// Classification lists column names per kind, each in dataset order.
type Classification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Datetime    []string `json:"datetime"`
	Identifier  []string `json:"identifier"`
}

type kindGroup struct {
	k     Kind
	names []string
}

func (c *Classification) groups() []kindGroup {
	return []kindGroup{{Numeric, c.Numeric}, {Categorical, c.Categorical}, {Datetime, c.Datetime}, {Identifier, c.Identifier}}
}

// KindOf returns the kind of the named column.
func (c *Classification) KindOf(name string) (Kind, bool) {
	for _, g := range c.groups() {
		for _, n := range g.names {
			if n == name {
				return g.k, true
			}
		}
	}
	return "", false
}

// Validate checks that every classified column exists, appears once, and
// that numeric names refer to numeric columns.
func (c *Classification) Validate(ds *dataset.Dataset) error {
	if c == nil {
		return fmt.Errorf("classification is nil")
	}
	seen := map[string]Kind{}
	for _, g := range c.groups() {
		for _, n := range g.names {
			col := ds.Column(n)
			if col == nil {
				return fmt.Errorf("%s column %q not in dataset", g.k, n)
			}
			if prev, dup := seen[n]; dup {
				return fmt.Errorf("column %q classified as both %s and %s", n, prev, g.k)
			}
			seen[n] = g.k
			if g.k == Numeric && col.Type != dataset.Numeric {
				return fmt.Errorf("numeric column %q holds %s values", n, col.Type)
			}
		}
	}
	return nil
}

// Classify inspects each column and returns the classification together with
// a copy of ds in which text columns recognised as dates are converted to
// datetime columns. The input dataset is never modified.
func Classify(ds *dataset.Dataset) (*Classification, *dataset.Dataset) {
	out := ds.Clone()
	cls := &Classification{}
	rows := out.Rows()
	for i, col := range out.Columns {
		switch col.Type {
		case dataset.Numeric:
			if isIdentifier(col, rows) {
				cls.Identifier = append(cls.Identifier, col.Name)
			} else {
				cls.Numeric = append(cls.Numeric, col.Name)
			}
		case dataset.Datetime:
			cls.Datetime = append(cls.Datetime, col.Name)
		case dataset.Text:
			if looksLikeDates(col) {
				out.Columns[i] = toDatetime(col)
				cls.Datetime = append(cls.Datetime, col.Name)
			} else {
				cls.Categorical = append(cls.Categorical, col.Name)
			}
		default:
			cls.Categorical = append(cls.Categorical, col.Name)
		}
	}
	return cls, out
}

func isIdentifier(col *dataset.Column, rows int) bool {
	if rows <= identifierMinRows {
		return false
	}
	uniq := make(map[float64]struct{}, rows)
	for i, v := range col.Num {
		if col.Valid[i] {
			uniq[v] = struct{}{}
		}
	}
	return float64(len(uniq)) > identifierUniqueFr*float64(rows)
}

// looksLikeDates samples the first non-null values of a text column.
func looksLikeDates(col *dataset.Column) bool {
	var sample []string
	for i, v := range col.Text {
		if !col.Valid[i] {
			continue
		}
		sample = append(sample, strings.TrimSpace(v))
		if len(sample) == dateSampleSize {
			break
		}
	}
	if len(sample) == 0 {
		return false
	}
	matched := 0
	for _, v := range sample {
		for _, re := range datePatterns {
			if re.MatchString(v) {
				matched++
				break
			}
		}
	}
	return float64(matched) >= dateMatchRatio*float64(len(sample))
}

func toDatetime(col *dataset.Column) *dataset.Column {
	vals := make([]time.Time, col.Len())
	for i, v := range col.Text {
		if col.Valid[i] {
			vals[i], _ = ParseTime(v)
		}
	}
	return dataset.NewDatetime(col.Name, vals)
}

// ParseTime tries the supported date layouts in order.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
