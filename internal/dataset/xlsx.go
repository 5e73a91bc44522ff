package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// loadXLSX reads one worksheet of an .xlsx workbook and normalizes it exactly
// like a delimited file. Only cell values are read; formulas, styles and
// dates stored as serial numbers pass through as their raw text.
func loadXLSX(p string, opt Options) (*Dataset, error) {
	name := filepath.Base(p)
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, &DataLoadError{Path: p, Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer zr.Close()

	target, err := sheetPath(&zr.Reader, opt.Sheet)
	if err != nil {
		return nil, &DataLoadError{Path: name, Err: err}
	}
	sheetXML := readZipFile(&zr.Reader, target)
	if sheetXML == nil {
		return nil, &DataLoadError{Path: name, Err: fmt.Errorf("worksheet %s missing from workbook", target)}
	}
	shared := parseSharedStrings(readZipFile(&zr.Reader, "xl/sharedStrings.xml"))
	return build(newSheetRowReader(sheetXML, shared), name, opt)
}

// sheetPath resolves the zip entry of the requested worksheet, or of the first
// one when sheet is empty.
func sheetPath(zr *zip.Reader, sheet string) (string, error) {
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	if sheet == "" {
		if len(sheets) > 0 {
			if rel, ok := rels[sheets[0].RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
		return "xl/worksheets/sheet1.xml", nil
	}
	names := make([]string, len(sheets))
	for i, s := range sheets {
		names[i] = s.Name
		if !strings.EqualFold(s.Name, sheet) {
			continue
		}
		if rel, ok := rels[s.RID]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(names, ", "))
}

type wbSheet struct {
	Name string
	RID  string
}

// parseWorkbook extracts sheet entries in workbook order.
func parseWorkbook(data []byte) []wbSheet {
	var sheets []wbSheet
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "sheet" {
			return
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "id": // r:id
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	})
	return sheets
}

// parseRelationships maps relationship ids to their targets.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func eachStart(data []byte, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se)
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// parseSharedStrings returns the shared string table; rich-text runs are concatenated.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows of a worksheet. Cells are placed by their A1
// reference so sparse rows keep their columns.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	row    int
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Read returns the next row, or io.EOF after the last one.
func (r *sheetRowReader) Read() ([]string, error) {
	var cur []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("sheet row %d: %w", r.row+1, err)
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				cur = cur[:0]
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
				col := colIndexFromRef(ref)
				if col < 0 {
					col = len(cur)
				}
				val, err := r.cellValue(typ)
				if err != nil {
					return nil, fmt.Errorf("sheet row %d: %w", r.row+1, err)
				}
				for len(cur) <= col {
					cur = append(cur, "")
				}
				cur[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				r.row++
				inRow = false
				// blank rows are skipped like blank lines in CSV
				if len(cur) > 0 {
					return cur, nil
				}
			}
		}
	}
}

// cellValue consumes a <c> element and returns its text: the <v> value, an
// inline <is><t> string or a resolved shared string.
func (r *sheetRowReader) cellValue(typ string) (string, error) {
	var val strings.Builder
	inText := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				inText = true
			}
		case xml.CharData:
			if inText {
				val.Write(se)
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "v", "t":
				inText = false
			case "c":
				if typ != "s" {
					return val.String(), nil
				}
				idx := atoiSafe(val.String())
				if idx >= 0 && idx < len(r.shared) {
					return r.shared[idx], nil
				}
				return "", nil
			}
		}
	}
}

// colIndexFromRef maps "C12" to 2.
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

// normalizeRelPath converts a relationship target to a zip entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
