package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var localeRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

var (
	expectScore  = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50, 10.1}
	expectLocale = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000, 1010}
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func assertLocaleDataset(t *testing.T, ds *Dataset, name string) {
	t.Helper()
	if ds.Name != name {
		t.Fatalf("name = %q, want %q", ds.Name, name)
	}
	if ds.Rows() != 10 || len(ds.Columns) != 7 {
		t.Fatalf("shape = %dx%d, want 10x7", ds.Rows(), len(ds.Columns))
	}
	want := map[string]Type{
		"Group": Text, "Concentration (g/L)": Numeric, "Temp (°F)": Numeric, "Score": Numeric,
		"LocaleNumber": Numeric, "Category": Text, "Note": Text,
	}
	for col, typ := range want {
		c := ds.Column(col)
		if c == nil {
			t.Fatalf("missing column %q in %v", col, ds.Names())
		}
		if c.Type != typ {
			t.Fatalf("column %q type = %s, want %s", col, c.Type, typ)
		}
	}
	checkValues(t, ds.Column("Score").Values(), expectScore)
	checkValues(t, ds.Column("LocaleNumber").Values(), expectLocale)
}

func checkValues(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadCSVLocaleSeparators(t *testing.T) {
	path := writeFile(t, "locale.csv", strings.Join(localeRows, "\n")+"\n")
	ds, err := LoadFile(path, LoadOptions{Delimiter: ';', DecimalSeparator: ',', ThousandsSeparator: '.'})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	assertLocaleDataset(t, ds, "locale.csv")
}

func TestLoadCSVInfersTypesAndNulls(t *testing.T) {
	body := "id,amount,flag,city,amount,empty\n" +
		"1,10.5,true,Paris,1,\n" +
		"2,NA,False,,2,\n" +
		"3,7,TRUE,Lyon,3,null\n"
	ds, err := LoadFile(writeFile(t, "mixed.csv", body), LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	wantNames := []string{"id", "amount", "flag", "city", "amount.1", "empty"}
	for i, n := range ds.Names() {
		if n != wantNames[i] {
			t.Fatalf("names = %v, want %v", ds.Names(), wantNames)
		}
	}
	amount := ds.Column("amount")
	if amount.Type != Numeric || amount.NullCount() != 1 || !amount.IsNull(1) {
		t.Fatalf("amount: type=%s nulls=%d", amount.Type, amount.NullCount())
	}
	if flag := ds.Column("flag"); flag.Type != Bool || flag.Bool[1] {
		t.Fatalf("flag: type=%s values=%v", flag.Type, flag.Bool)
	}
	if city := ds.Column("city"); city.Type != Text || city.NullCount() != 1 {
		t.Fatalf("city: type=%s nulls=%d", city.Type, city.NullCount())
	}
	if empty := ds.Column("empty"); empty.Type != Numeric || empty.NullCount() != 3 {
		t.Fatalf("empty: type=%s nulls=%d", empty.Type, empty.NullCount())
	}
}

func TestLoadCSVHeaderOnlyAndMaxRows(t *testing.T) {
	ds, err := LoadFile(writeFile(t, "header.csv", "a,b\n"), LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if ds.Rows() != 0 || len(ds.Columns) != 2 {
		t.Fatalf("header-only shape = %dx%d", ds.Rows(), len(ds.Columns))
	}

	ds, err = LoadFile(writeFile(t, "empty.tsv", ""), LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile empty: %v", err)
	}
	if len(ds.Columns) != 0 {
		t.Fatalf("expected no columns, got %v", ds.Names())
	}

	ds, err = LoadFile(writeFile(t, "capped.tsv", "a\tb\n1\t2\n3\t4\n5\t6\n"), LoadOptions{MaxRows: 2})
	if err != nil {
		t.Fatalf("LoadFile capped: %v", err)
	}
	if ds.Rows() != 2 || ds.SourceRows != 3 {
		t.Fatalf("rows=%d source=%d, want 2 and 3", ds.Rows(), ds.SourceRows)
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile(writeFile(t, "notes.txt", "hello"), LoadOptions{})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestNewRejectsMismatchedColumns(t *testing.T) {
	if _, err := New("x", NewNumeric("a", []float64{1, 2}), NewNumeric("b", []float64{1})); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := New("x", NewNumeric("a", []float64{1}), NewText("a", []string{"z"})); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestTakeAndRowKey(t *testing.T) {
	ds := MustNew("t",
		NewNumeric("n", []float64{1, math.NaN(), 1}),
		NewText("s", []string{"x", "", "x"}),
		NewDatetime("d", []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), {}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}),
	)
	if ds.RowKey(0) != ds.RowKey(2) {
		t.Fatalf("identical rows should share a key")
	}
	if ds.RowKey(0) == ds.RowKey(1) {
		t.Fatalf("null row should differ")
	}
	sub := ds.Take([]int{2, 1})
	if sub.Rows() != 2 || !sub.Column("n").IsNull(1) || sub.Column("s").Text[0] != "x" {
		t.Fatalf("unexpected take result")
	}
	sub.Column("n").Num[0] = 99
	if ds.Column("n").Num[2] != 1 {
		t.Fatalf("take must copy")
	}
}

func TestFingerprintAndSample(t *testing.T) {
	vals := make([]float64, 2000)
	for i := range vals {
		vals[i] = float64(i)
	}
	a := MustNew("a", NewNumeric("x", vals))
	b := a.Clone()
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("fingerprint must be deterministic")
	}
	b.Columns[0].Name = "y"
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("fingerprint must depend on column names")
	}

	s, ok := Sample(a, 1000, 0.1, 42)
	if !ok || s.Rows() != 200 {
		t.Fatalf("sample rows=%d ok=%v", s.Rows(), ok)
	}
	prev := -1.0
	for _, v := range s.Column("x").Num {
		if v <= prev {
			t.Fatalf("sample must preserve row order")
		}
		prev = v
	}
	if _, ok := Sample(a, 5000, 0.1, 42); ok {
		t.Fatalf("small datasets are not sampled")
	}
}
