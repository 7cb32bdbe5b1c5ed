package dataset

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".xlsx")
}

func (xlsxLoader) Load(p string, opt LoadOptions) (*Dataset, error) {
	return LoadXLSX(p, opt)
}

// LoadXLSX reads one worksheet of a workbook. The sheet is chosen by
// opt.SheetName (case-insensitive) or by the 1-based opt.SheetIndex, which
// defaults to the first sheet.
func LoadXLSX(p string, opt LoadOptions) (*Dataset, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	var wb xlsxWorkbook
	if err := decodeZipXML(&zr.Reader, "xl/workbook.xml", &wb); err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	var rels xlsxRelationships
	_ = decodeZipXML(&zr.Reader, "xl/_rels/workbook.xml.rels", &rels)
	var sst xlsxSharedStrings
	_ = decodeZipXML(&zr.Reader, "xl/sharedStrings.xml", &sst)

	target, err := wb.resolve(rels.targets(), opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%w in workbook '%s'", err, filepath.Base(p))
	}
	f := findZipFile(&zr.Reader, target)
	if f == nil {
		return nil, fmt.Errorf("worksheet %s missing from workbook '%s'", target, filepath.Base(p))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open worksheet: %w", err)
	}
	defer rc.Close()

	rr := &sheetRowReader{dec: xml.NewDecoder(rc), shared: sst.strings()}
	header, ok := rr.Next()
	if !ok || len(header) == 0 {
		return &Dataset{Name: filepath.Base(p)}, nil
	}
	var rows [][]string
	seen := 0
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		seen++
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			continue
		}
		rows = append(rows, row)
	}
	if rr.err != nil {
		return nil, fmt.Errorf("read worksheet: %w", rr.err)
	}
	ds := FromRecords(filepath.Base(p), header, rows, opt)
	ds.SourceRows = seen
	return ds, nil
}

type xlsxWorkbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

// resolve maps a sheet name or 1-based index to a worksheet path inside the archive.
func (wb xlsxWorkbook) resolve(rels map[string]string, name string, index int) (string, error) {
	if name != "" {
		names := make([]string, len(wb.Sheets))
		for i, s := range wb.Sheets {
			names[i] = s.Name
			if strings.EqualFold(s.Name, name) {
				if t, ok := rels[s.RID]; ok {
					return normalizeRelPath(t), nil
				}
			}
		}
		return "", fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range wb.Sheets {
		if s.SheetID == index {
			if t, ok := rels[s.RID]; ok {
				return normalizeRelPath(t), nil
			}
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

type xlsxRelationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func (r xlsxRelationships) targets() map[string]string {
	out := make(map[string]string, len(r.Items))
	for _, it := range r.Items {
		if it.ID != "" && it.Target != "" {
			out[it.ID] = it.Target
		}
	}
	return out
}

type xlsxSharedStrings struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

func (s xlsxSharedStrings) strings() []string {
	out := make([]string, len(s.Items))
	for i, it := range s.Items {
		if len(it.Runs) == 0 {
			out[i] = it.T
			continue
		}
		var b strings.Builder
		for _, r := range it.Runs {
			b.WriteString(r.T)
		}
		out[i] = b.String()
	}
	return out
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func decodeZipXML(zr *zip.Reader, name string, v any) error {
	f := findZipFile(zr, name)
	if f == nil {
		return fmt.Errorf("%s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// sheetRowReader streams rows out of a worksheet without loading the whole
// sheet into memory. Rows are padded so that cell positions follow their
// A1 references.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func (r *sheetRowReader) Next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				row = row[:0]
			case inRow && se.Name.Local == "c":
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				idx := len(row)
				if ref != "" {
					if i := colIndexFromRef(ref); i >= 0 {
						idx = i
					}
				}
				for len(row) <= idx {
					row = append(row, "")
				}
				row[idx] = r.cellValue(typ)
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

// cellValue consumes tokens up to the end of the current <c> element.
func (r *sheetRowReader) cellValue(typ string) string {
	var val strings.Builder
	depth := 0
	capture := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val.String()
		}
		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = true
			}
		case xml.CharData:
			if capture {
				val.Write(se)
			}
		case xml.EndElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = false
			}
			if depth == 0 {
				return r.decodeCell(typ, val.String())
			}
			depth--
		}
	}
}

func (r *sheetRowReader) decodeCell(typ, raw string) string {
	switch typ {
	case "s":
		idx := atoiSafe(raw)
		if idx >= 0 && idx < len(r.shared) {
			return r.shared[idx]
		}
		return ""
	case "b":
		if raw == "1" {
			return "true"
		}
		return "false"
	default:
		return raw
	}
}

// colIndexFromRef converts refs like "C12" to a 0-based column index.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship targets to archive paths; targets
// may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
